package prune

import (
	"github.com/feedbackcoin/fbcd/blockfile"
)

// collectFiles enumerates the blocks directory and deletes every store file
// whose number is not in neededFiles. It runs strictly after the erase phase,
// so every record backed by a deleted file has already had its flags cleared
// and durably persisted.
//
// Only names that exactly match the blk/rev naming convention are deletion
// candidates. Anything else in the directory - the lock file, unparseable
// names, unrelated files - is never touched. A failed deletion is logged and
// enumeration continues.
func collectFiles(store *blockfile.Store, neededFiles map[uint32]struct{}, result *Result) {
	entries, err := store.Files()
	if err != nil {
		log.Errorf("Could not enumerate blocks directory: %s", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()
		fileNumber, ok := blockfile.ParseFileName(fileName)
		if !ok {
			continue
		}
		if _, fileNeeded := neededFiles[fileNumber]; fileNeeded {
			result.FilesKept++
			continue
		}

		err := store.RemoveFile(fileName)
		if err != nil {
			log.Errorf("Could not delete store file %s: %s", fileName, err)
			result.FilesKept++
			continue
		}
		log.Debugf("Deleted store file %s", fileName)
		result.FilesDeleted++
	}
}
