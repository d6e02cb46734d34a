package materializer

import (
	"strconv"

	"github.com/mirrorkit/photomirror/pkg/journal"
	"github.com/mirrorkit/photomirror/pkg/model"
	"github.com/mirrorkit/photomirror/pkg/namealloc"
)

// Seed preloads alloc with every name the journal already has on record,
// so a freshly constructed NameAllocator in a new process doesn't
// reissue a directory or file name a prior run already committed to
// disk (§4.2: a previously exported name is never a valid candidate for
// something else). Call this once, right after opening the journal and
// before the first Plan/Run of a process's lifetime.
func Seed(j *journal.Journal, alloc *namealloc.NameAllocator) {
	collectionNames := make([]string, 0, len(j.KnownCollectionIDs()))
	for _, idStr := range j.KnownCollectionIDs() {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		if name, ok := j.CollectionName(id); ok {
			collectionNames = append(collectionNames, name)
		}
	}
	alloc.Seed("collections", collectionNames)

	perCollection := make(map[string][]string)
	for _, uidStr := range j.KnownFileUIDs() {
		uid := model.ParseFileUID(uidStr)
		rec, ok := j.FileRecord(uid)
		if !ok {
			continue
		}
		nsKey := collectionDirKey(uid.CollectionID)
		perCollection[nsKey] = append(perCollection[nsKey], recordNames(rec)...)
	}
	for nsKey, names := range perCollection {
		alloc.Seed(nsKey, names)
	}
}
