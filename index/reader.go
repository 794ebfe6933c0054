package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"unsafe"

	"github.com/blaze-search/blaze/trigram"
)

// An mmapData is mmap'ed read-only data from a file.
type mmapData struct {
	f *os.File
	d []byte
}

// mmap maps the given file into memory.
func mmap(file string) (*mmapData, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	return mmapFile(f)
}

// Reader is a read-only, memory-mapped view of an on-disk index. All
// derived slices alias the mapping directly; a Reader is immutable once
// Open returns and is safe to share across goroutines without
// synchronization.
type Reader struct {
	data mmapData
	hdr  header
	meta indexMeta

	extTable []string
}

// Open memory-maps path, validates its header, and returns a Reader ready
// for concurrent queries.
func Open(path string) (*Reader, error) {
	mm, err := mmap(path)
	if err != nil {
		return nil, err
	}
	if len(mm.d) < headerSize {
		return nil, ErrCorrupt
	}
	hdr, err := decodeHeader(mm.d[:headerSize])
	if err != nil {
		return nil, err
	}
	if hdr.Magic != magic {
		return nil, ErrCorrupt
	}
	if hdr.Version != version {
		return nil, ErrVersionMismatch
	}
	check := make([]byte, headerSize)
	copy(check, mm.d[:headerSize])
	binary.LittleEndian.PutUint32(check[12:16], 0)
	if crc32.ChecksumIEEE(check) != hdr.HeaderCRC32 {
		return nil, ErrCorrupt
	}
	for _, d := range hdr.Sections {
		if d.Offset+d.Len > uint64(len(mm.d)) {
			return nil, ErrCorrupt
		}
	}

	r := &Reader{data: *mm, hdr: hdr}
	r.meta = decodeMeta(r.section(secMeta))
	r.extTable = decodeExtTable(r.section(secExtTable))
	return r, nil
}

// RootPathFor validates that requestedRoot (already canonicalized by the
// caller) matches the root path the index was built from.
func (r *Reader) RootPathFor(requestedRoot string) error {
	if r.RootPath() != requestedRoot {
		return ErrRootMismatch
	}
	return nil
}

func (r *Reader) section(i int) []byte {
	d := r.hdr.Sections[i]
	return r.data.d[d.Offset : d.Offset+d.Len]
}

// FileCount returns the number of indexed files (including directories,
// symlinks, and specials, every FileRecord the builder ingested).
func (r *Reader) FileCount() int { return int(r.hdr.FileCount) }

// DirCount returns the number of interned directories.
func (r *Reader) DirCount() int { return int(r.hdr.DirCount) }

// RootPath returns the absolute path the index was built from.
func (r *Reader) RootPath() string {
	return r.getName(r.meta.RootPathOffset, r.meta.RootPathLen)
}

// CreatedAt returns the build timestamp, in epoch seconds.
func (r *Reader) CreatedAt() uint64 { return r.meta.CreatedSecs }

func (r *Reader) getName(offset, length uint32) string {
	blob := r.section(secNamesBlob)
	if uint64(offset)+uint64(length) > uint64(len(blob)) {
		return ""
	}
	return string(blob[offset : offset+length])
}

func (r *Reader) fileAt(id FileId) (fileMeta, bool) {
	if int(id) >= r.FileCount() {
		return fileMeta{}, false
	}
	b := r.section(secFilesMeta)
	o := int(id) * fileMetaRecordSize
	if o+fileMetaRecordSize > len(b) {
		return fileMeta{}, false
	}
	return decodeFileMeta(b[o : o+fileMetaRecordSize]), true
}

func (r *Reader) dirAt(id DirId) (dirMeta, bool) {
	if id == DirNone || int(id) >= r.DirCount() {
		return dirMeta{}, false
	}
	b := r.section(secDirs)
	o := int(id) * dirMetaRecordSize
	if o+dirMetaRecordSize > len(b) {
		return dirMeta{}, false
	}
	return decodeDirMeta(b[o : o+dirMetaRecordSize]), true
}

// Name returns the file name for id, or "" if id is out of range.
func (r *Reader) Name(id FileId) string {
	fm, ok := r.fileAt(id)
	if !ok {
		return ""
	}
	return r.getName(fm.NameOffset, fm.NameLen)
}

// Size returns the file size in bytes.
func (r *Reader) Size(id FileId) uint64 {
	fm, _ := r.fileAt(id)
	return fm.Size
}

// ModifiedEpoch returns the file's modification time in epoch seconds.
func (r *Reader) ModifiedEpoch(id FileId) uint32 {
	fm, _ := r.fileAt(id)
	return fm.Mtime
}

// CreatedEpoch returns the file's creation time in epoch seconds.
func (r *Reader) CreatedEpoch(id FileId) uint32 {
	fm, _ := r.fileAt(id)
	return fm.Ctime
}

// AccessedEpoch returns the file's access time in epoch seconds.
func (r *Reader) AccessedEpoch(id FileId) uint32 {
	fm, _ := r.fileAt(id)
	return fm.Atime
}

// Ext returns the file's lowercase extension, or "" if it has none.
func (r *Reader) Ext(id FileId) string {
	fm, ok := r.fileAt(id)
	if !ok || int(fm.ExtId) >= len(r.extTable) {
		return ""
	}
	return r.extTable[fm.ExtId]
}

// Flags returns the file's FileFlags.
func (r *Reader) Flags(id FileId) FileFlags {
	fm, _ := r.fileAt(id)
	return FileFlags(fm.FlagBits)
}

// Noise returns the file's NoiseFlags.
func (r *Reader) Noise(id FileId) NoiseFlags {
	fm, _ := r.fileAt(id)
	return NoiseFlags(fm.NoiseBits)
}

// Depth returns the file's path depth.
func (r *Reader) Depth(id FileId) uint8 {
	fm, _ := r.fileAt(id)
	return fm.PathDepth
}

// DirOf returns the DirId of the directory containing id.
func (r *Reader) DirOf(id FileId) DirId {
	fm, _ := r.fileAt(id)
	return DirId(fm.DirId)
}

// DirName returns a directory's own interned name (its final path
// component, not its full path).
func (r *Reader) DirName(id DirId) string {
	dm, ok := r.dirAt(id)
	if !ok {
		return ""
	}
	return r.getName(dm.NameOffset, dm.NameLen)
}

// DirParent returns a directory's parent, or DirNone at the root.
func (r *Reader) DirParent(id DirId) DirId {
	dm, ok := r.dirAt(id)
	if !ok {
		return DirNone
	}
	return DirId(dm.Parent)
}

// ReconstructPath rebuilds the absolute path of id by walking DirMeta
// parent links and joining with the stored root path. It returns an
// explicit error on a broken parent chain instead of silently degrading
// to the bare filename.
func (r *Reader) ReconstructPath(id FileId) (string, error) {
	fm, ok := r.fileAt(id)
	if !ok {
		return "", fmt.Errorf("index: file id %d out of range", id)
	}
	var comps []string
	dir := DirId(fm.DirId)
	limit := r.DirCount() + 1
	for dir != DirNone {
		if limit == 0 {
			return "", fmt.Errorf("index: directory parent chain for file %d did not terminate", id)
		}
		limit--
		dm, ok := r.dirAt(dir)
		if !ok {
			return "", fmt.Errorf("index: broken directory chain at dir %d for file %d", dir, id)
		}
		comps = append(comps, r.getName(dm.NameOffset, dm.NameLen))
		dir = DirId(dm.Parent)
	}
	for i, j := 0, len(comps)-1; i < j; i, j = i+1, j-1 {
		comps[i], comps[j] = comps[j], comps[i]
	}
	rel := bytes.Join(toByteSlices(comps), []byte("/"))

	root := r.RootPath()
	if len(rel) == 0 {
		return filepath.Join(root, fm.nameString(r)), nil
	}
	return filepath.Join(root, string(rel), fm.nameString(r)), nil
}

func (fm fileMeta) nameString(r *Reader) string {
	return r.getName(fm.NameOffset, fm.NameLen)
}

func toByteSlices(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

// QueryTrigram returns the sorted FileId posting list for t, or nil if the
// trigram isn't present. The returned slice is a zero-copy view into the
// memory-mapped file.
func (r *Reader) QueryTrigram(t trigram.T) []uint32 {
	return r.queryTrigram(secTrigramKeys, secTrigramPostings, uint32(t))
}

// QueryDirTrigram returns the sorted DirId posting list for t, or nil.
func (r *Reader) QueryDirTrigram(t trigram.T) []uint32 {
	return r.queryTrigram(secDirTrigramKeys, secDirTrigramPostings, uint32(t))
}

func (r *Reader) queryTrigram(keysSec, postSec int, t uint32) []uint32 {
	keys := r.section(keysSec)
	n := len(keys) / trigramKeyRecordSize
	idx := sort.Search(n, func(i int) bool {
		return binary.LittleEndian.Uint32(keys[i*trigramKeyRecordSize:]) >= t
	})
	if idx >= n || binary.LittleEndian.Uint32(keys[idx*trigramKeyRecordSize:]) != t {
		return nil
	}
	o := idx * trigramKeyRecordSize
	off := binary.LittleEndian.Uint32(keys[o+4 : o+8])
	length := binary.LittleEndian.Uint32(keys[o+8 : o+12])
	post := r.section(postSec)
	lo, hi := int(off)*4, int(off+length)*4
	if hi > len(post) {
		return nil
	}
	return u32SliceView(post[lo:hi])
}

// ExtPostings returns the sorted FileId posting list for ext (case folded
// by the caller beforehand), or nil if the extension isn't present.
func (r *Reader) ExtPostings(ext string) []uint32 {
	id, ok := r.extIdFor(ext)
	if !ok {
		return nil
	}
	keys := r.section(secExtIndexKeys)
	n := len(keys) / extKeyRecordSize
	idx := sort.Search(n, func(i int) bool {
		return binary.LittleEndian.Uint16(keys[i*extKeyRecordSize:]) >= uint16(id)
	})
	if idx >= n || binary.LittleEndian.Uint16(keys[idx*extKeyRecordSize:]) != uint16(id) {
		return nil
	}
	o := idx * extKeyRecordSize
	off := binary.LittleEndian.Uint32(keys[o+4 : o+8])
	length := binary.LittleEndian.Uint32(keys[o+8 : o+12])
	post := r.section(secExtIndexPostings)
	lo, hi := int(off)*4, int(off+length)*4
	if hi > len(post) {
		return nil
	}
	return u32SliceView(post[lo:hi])
}

func (r *Reader) extIdFor(ext string) (ExtId, bool) {
	for i, e := range r.extTable {
		if e == ext {
			return ExtId(i), true
		}
	}
	return 0, false
}

// u32SliceView reinterprets a byte slice as a []uint32 without copying,
// assuming a little-endian host (true of the platforms this package
// targets) and 4-byte alignment, which the writer's section alignment
// guarantees.
func u32SliceView(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func decodeHeader(b []byte) (header, error) {
	if len(b) < headerSize {
		return header{}, ErrCorrupt
	}
	le := binary.LittleEndian
	var h header
	h.Magic = le.Uint32(b[0:4])
	h.Version = le.Uint32(b[4:8])
	h.HeaderSize = le.Uint32(b[8:12])
	h.HeaderCRC32 = le.Uint32(b[12:16])
	h.BuildFlags = le.Uint32(b[16:20])
	h.FileCount = le.Uint32(b[20:24])
	h.DirCount = le.Uint32(b[24:28])
	h.ExtCount = le.Uint32(b[28:32])
	off := headerFixedSize
	for i := range h.Sections {
		h.Sections[i] = sectionDesc{
			Offset: le.Uint64(b[off : off+8]),
			Len:    le.Uint64(b[off+8 : off+16]),
			Flags:  le.Uint32(b[off+16 : off+20]),
		}
		off += sectionDescSize
	}
	return h, nil
}

func decodeMeta(b []byte) indexMeta {
	le := binary.LittleEndian
	return indexMeta{
		CreatedSecs:    le.Uint64(b[0:8]),
		RootPathOffset: le.Uint32(b[8:12]),
		RootPathLen:    le.Uint32(b[12:16]),
		BuildFlags:     le.Uint32(b[16:20]),
	}
}

func decodeExtTable(b []byte) []string {
	var out []string
	start := 0
	for i, c := range b {
		if c == 0 {
			out = append(out, string(b[start:i]))
			start = i + 1
		}
	}
	return out
}

func decodeFileMeta(b []byte) fileMeta {
	le := binary.LittleEndian
	return fileMeta{
		Size:       le.Uint64(b[0:8]),
		Mtime:      le.Uint32(b[8:12]),
		Ctime:      le.Uint32(b[12:16]),
		Atime:      le.Uint32(b[16:20]),
		DirId:      le.Uint32(b[20:24]),
		NameOffset: le.Uint32(b[24:28]),
		NameLen:    le.Uint32(b[28:32]),
		ExtId:      le.Uint16(b[32:34]),
		FlagBits:   le.Uint16(b[34:36]),
		NoiseBits:  b[36],
		PathDepth:  b[37],
	}
}

func decodeDirMeta(b []byte) dirMeta {
	le := binary.LittleEndian
	return dirMeta{
		NameOffset: le.Uint32(b[0:4]),
		NameLen:    le.Uint32(b[4:8]),
		Parent:     le.Uint32(b[8:12]),
		FlagBits:   le.Uint16(b[12:14]),
	}
}

// File returns the default index path: $BLAZEINDEX, a .blazeindex file
// found in the current directory or a parent, or ~/.blazeindex.
func File() string {
	if f := os.Getenv("BLAZEINDEX"); f != "" {
		return f
	}
	cwd, err := os.Getwd()
	if err == nil {
		for {
			f := filepath.Join(cwd, ".blazeindex")
			if _, err := os.Lstat(f); err == nil {
				return f
			}
			parent := filepath.Dir(cwd)
			if parent == cwd {
				break
			}
			cwd = parent
		}
	}
	home := os.Getenv("HOME")
	if runtime.GOOS == "windows" && home == "" {
		home = os.Getenv("USERPROFILE")
	}
	return filepath.Clean(home + "/.blazeindex")
}
