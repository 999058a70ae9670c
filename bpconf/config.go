// Package bpconf loads operator-facing configuration for the persistent
// file store, the way the teacher's server/conf package loads an INI
// file into a typed struct via gopkg.in/ini.v1 (SPEC_FULL §4.3
// "Store configuration loading").
package bpconf

import (
	"os"

	"gopkg.in/ini.v1"

	"github.com/zhukovaskychina/bplib/store"
)

const (
	sectionName    = "store"
	rootPathKey    = "root_path"
	cacheSizeKey   = "cache_size"
	defaultRootDir = ".pfile"
	defaultCache   = 16384
)

// LoadStoreConfig reads an INI file's [store] section into a
// store.FileAttr, falling back to the spec's documented defaults
// (root ".pfile", cache 16384) for any key that is absent, or if the
// file itself does not exist.
func LoadStoreConfig(path string) (*store.FileAttr, error) {
	attr := &store.FileAttr{RootPath: defaultRootDir, CacheSize: defaultCache}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return attr, nil
	}

	raw, err := ini.Load(path)
	if err != nil {
		return nil, err
	}

	section := raw.Section(sectionName)
	attr.RootPath = section.Key(rootPathKey).MustString(defaultRootDir)
	attr.CacheSize = section.Key(cacheSizeKey).MustInt(defaultCache)

	return attr, nil
}
