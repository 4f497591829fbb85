package scanner

import (
	"path/filepath"

	"github.com/temirov/ctxrepo/internal/types"
)

// ExtensionKey returns the classification bucket for a file name: its last
// dotted extension ("archive.tar.gz" is ".gz"), the whole name for a dotfile
// without a further extension (".gitignore"), or types.NoExtensionKey.
func ExtensionKey(fileName string) string {
	extension := filepath.Ext(filepath.Base(fileName))
	if extension == "" {
		return types.NoExtensionKey
	}
	return extension
}
