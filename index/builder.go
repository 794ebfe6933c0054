package index

import (
	"sort"
	"strings"

	"github.com/blaze-search/blaze/trigram"
)

// Builder accumulates FileRecords into a Staged index. It is not
// safe for concurrent use; the walker feeds it through a bounded
// channel drained by a single goroutine.
type Builder struct {
	rootPath       string
	rootPathOffset uint32
	rootPathLen    uint32
	createdSecs    uint64

	namesBlob []byte

	dirs   []dirMeta
	dirMap map[string]DirId

	files []fileMeta

	extTable []string
	extMap   map[string]ExtId
	extPost  [][]uint32

	fileTrigrams map[trigram.T][]uint32
	dirTrigrams  map[trigram.T][]uint32
}

// NewBuilder creates a Builder for the tree rooted at rootPath. createdSecs
// is the build timestamp (epoch seconds), supplied by the caller so the
// builder itself never reads the clock.
func NewBuilder(rootPath string, createdSecs uint64) *Builder {
	b := &Builder{
		rootPath:     rootPath,
		createdSecs:  createdSecs,
		dirMap:       make(map[string]DirId),
		extMap:       make(map[string]ExtId),
		fileTrigrams: make(map[trigram.T][]uint32),
		dirTrigrams:  make(map[trigram.T][]uint32),
	}
	b.rootPathOffset, b.rootPathLen = b.intern(rootPath)
	// ExtId 0 is reserved for "no extension".
	b.extTable = append(b.extTable, "")
	b.extPost = append(b.extPost, nil)
	return b
}

func (b *Builder) intern(s string) (offset, length uint32) {
	offset = uint32(len(b.namesBlob))
	b.namesBlob = append(b.namesBlob, s...)
	return offset, uint32(len(s))
}

// AddRecord ingests one FileRecord.
func (b *Builder) AddRecord(rec FileRecord) FileId {
	nameOff, nameLen := b.intern(rec.Name)

	extId := b.internExt(rec.Ext)

	rel := b.relativePath(rec.Path)
	relParent, _ := splitRelParent(rel)
	dirId := b.getOrInsertDir(relParent)

	noiseFlags, depth := ClassifyNoise(rec.Path)
	fileFlags := computeFileFlags(rec)

	fileId := FileId(len(b.files))
	b.files = append(b.files, fileMeta{
		Size:       rec.Size,
		Mtime:      narrowTime(rec.Modified),
		Ctime:      narrowTime(rec.Created),
		Atime:      narrowTime(rec.Accessed),
		DirId:      uint32(dirId),
		NameOffset: nameOff,
		NameLen:    nameLen,
		ExtId:      uint16(extId),
		FlagBits:   uint16(fileFlags),
		NoiseBits:  uint8(noiseFlags),
		PathDepth:  depth,
	})
	b.extPost[extId] = append(b.extPost[extId], uint32(fileId))

	b.addTrigrams(fileId, rec, rel, fileFlags)

	return fileId
}

func (b *Builder) addTrigrams(fileId FileId, rec FileRecord, rel string, flags FileFlags) {
	if rec.IsDir {
		selfDirId := b.getOrInsertDir(rel)
		for _, t := range trigram.ForString(rel) {
			b.dirTrigrams[t] = append(b.dirTrigrams[t], uint32(selfDirId))
		}
		return
	}
	if rec.IsSymlink || rec.IsSpecial || !flags.IsDefaultVisible() {
		return
	}
	for _, t := range trigram.ForString(rel) {
		b.fileTrigrams[t] = append(b.fileTrigrams[t], uint32(fileId))
	}
}

func (b *Builder) internExt(ext string) ExtId {
	if ext == "" {
		return ExtNone
	}
	if id, ok := b.extMap[ext]; ok {
		return id
	}
	id := ExtId(len(b.extTable))
	b.extTable = append(b.extTable, ext)
	b.extPost = append(b.extPost, nil)
	b.extMap[ext] = id
	return id
}

// getOrInsertDir resolves the DirId for relDir (a root-relative directory
// path), interning a chain of DirMeta entries back to the root as needed.
// Parents are always created before their children, so DirMeta.Parent
// always refers to a strictly earlier index.
func (b *Builder) getOrInsertDir(relDir string) DirId {
	if relDir == "" {
		return DirNone
	}
	if id, ok := b.dirMap[relDir]; ok {
		return id
	}
	parentRel, name := splitRelParent(relDir)
	parentId := b.getOrInsertDir(parentRel)
	nameOff, nameLen := b.intern(name)
	id := DirId(len(b.dirs))
	b.dirs = append(b.dirs, dirMeta{
		NameOffset: nameOff,
		NameLen:    nameLen,
		Parent:     uint32(parentId),
	})
	b.dirMap[relDir] = id
	return id
}

// relativePath strips the root prefix from an absolute path, falling back
// to the absolute path if it isn't rooted under b.rootPath.
func (b *Builder) relativePath(absPath string) string {
	if absPath == b.rootPath {
		return ""
	}
	prefix := b.rootPath
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if strings.HasPrefix(absPath, prefix) {
		return absPath[len(prefix):]
	}
	return absPath
}

func splitRelParent(rel string) (parent, name string) {
	if rel == "" {
		return "", ""
	}
	i := strings.LastIndexByte(rel, '/')
	if i < 0 {
		return "", rel
	}
	return rel[:i], rel[i+1:]
}

func computeFileFlags(rec FileRecord) FileFlags {
	var f FileFlags
	if rec.IsDir {
		f |= FlagIsDir
	}
	if rec.IsSymlink {
		f |= FlagIsSymlink
	}
	if rec.IsSpecial {
		f |= FlagSpecial
	}
	if rec.HiddenOS {
		f |= FlagHidden
	}
	if rec.IgnoredByPattern {
		f |= FlagExcludedGlob
	}
	if rec.ExcludedByUser {
		f |= FlagExcludedUser
	}
	if rec.InTrash {
		f |= FlagInTrash
	}
	return f
}

func narrowTime(epochSecs int64) uint32 {
	if epochSecs <= 0 {
		return 0
	}
	if epochSecs > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(epochSecs)
}

// Staged is the in-memory, post-Finish form produced by Builder, ready to
// be handed to Write.
type Staged struct {
	RootPath       string
	RootPathOffset uint32
	RootPathLen    uint32
	CreatedSecs    uint64

	NamesBlob []byte
	Dirs      []dirMeta
	Files     []fileMeta

	ExtTable    []string
	ExtKeys     []extKey
	ExtPostings []uint32

	FileTrigramKeys     []trigramKeyRec
	FileTrigramPostings []uint32
	DirTrigramKeys      []trigramKeyRec
	DirTrigramPostings  []uint32
}

// Finish sorts every posting list and packs the trigram and extension
// maps into sorted key arrays plus flat postings arrays.
func (b *Builder) Finish() *Staged {
	extKeys, extPostings := packExtPostings(b.extPost)
	fileKeys, filePostings := packTrigramMap(b.fileTrigrams)
	dirKeys, dirPostings := packTrigramMap(b.dirTrigrams)

	return &Staged{
		RootPath:       b.rootPath,
		RootPathOffset: b.rootPathOffset,
		RootPathLen:    b.rootPathLen,
		CreatedSecs:    b.createdSecs,

		NamesBlob: b.namesBlob,
		Dirs:      b.dirs,
		Files:     b.files,

		ExtTable:    b.extTable,
		ExtKeys:     extKeys,
		ExtPostings: extPostings,

		FileTrigramKeys:     fileKeys,
		FileTrigramPostings: filePostings,
		DirTrigramKeys:      dirKeys,
		DirTrigramPostings:  dirPostings,
	}
}

func packExtPostings(extPost [][]uint32) ([]extKey, []uint32) {
	keys := make([]extKey, 0, len(extPost))
	var flat []uint32
	for id, postings := range extPost {
		sort.Slice(postings, func(i, j int) bool { return postings[i] < postings[j] })
		keys = append(keys, extKey{
			ExtId:          uint16(id),
			PostingsOffset: uint32(len(flat)),
			PostingsLen:    uint32(len(postings)),
		})
		flat = append(flat, postings...)
	}
	return keys, flat
}

func packTrigramMap(m map[trigram.T][]uint32) ([]trigramKeyRec, []uint32) {
	tris := make([]trigram.T, 0, len(m))
	for t := range m {
		tris = append(tris, t)
	}
	sort.Slice(tris, func(i, j int) bool { return tris[i] < tris[j] })

	keys := make([]trigramKeyRec, 0, len(tris))
	var flat []uint32
	for _, t := range tris {
		postings := m[t]
		sort.Slice(postings, func(i, j int) bool { return postings[i] < postings[j] })
		keys = append(keys, trigramKeyRec{
			Trigram:        uint32(t),
			PostingsOffset: uint32(len(flat)),
			PostingsLen:    uint32(len(postings)),
		})
		flat = append(flat, postings...)
	}
	return keys, flat
}
