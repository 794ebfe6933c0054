package index

// On-disk index format.
//
// The file begins with a fixed-size header: magic, version, header size,
// header CRC32 (computed with this field zeroed), build flags, file/dir/
// extension counts, 16 reserved bytes, then eleven SectionDescs in this
// fixed order:
//
//	metadata, ext_table, dirs, files_meta, names_blob,
//	ext_index_keys, ext_index_postings,
//	trigram_keys, trigram_postings,
//	dir_trigram_keys, dir_trigram_postings
//
// Sections containing fixed-size records are aligned up to 8 bytes; the
// names blob and the ext_table (NUL-separated strings) require no
// alignment. All integers are little-endian.

const (
	magic   uint32 = 0x455A4C42 // "BLZE"
	version uint32 = 1

	sectionAlignment = 8
	numSections       = 11

	sectionDescSize = 24 // offset u64, len u64, flags u32, reserved u32
	headerFixedSize = 4 + 4 + 4 + 4 + 4 + 4 + 4 + 4 + 16
	headerSize      = headerFixedSize + numSections*sectionDescSize

	metaRecordSize      = 24 // created_secs u64, root_path_offset u32, root_path_len u32, build_flags u32, reserved u32
	fileMetaRecordSize  = 48
	dirMetaRecordSize   = 16
	extKeyRecordSize    = 16
	trigramKeyRecordSize = 16
)

// section indices, in the fixed on-disk order.
const (
	secMeta = iota
	secExtTable
	secDirs
	secFilesMeta
	secNamesBlob
	secExtIndexKeys
	secExtIndexPostings
	secTrigramKeys
	secTrigramPostings
	secDirTrigramKeys
	secDirTrigramPostings
)

// sectionDesc locates one section of the file: absolute byte offset,
// length, and a reserved flags word (bit 0 = compressed, bit 1 =
// delta-encoded; both unused in version 1).
type sectionDesc struct {
	Offset uint64
	Len    uint64
	Flags  uint32
}

// header is the fixed-size file header.
type header struct {
	Magic       uint32
	Version     uint32
	HeaderSize  uint32
	HeaderCRC32 uint32
	BuildFlags  uint32
	FileCount   uint32
	DirCount    uint32
	ExtCount    uint32
	Sections    [numSections]sectionDesc
}

// indexMeta carries build-time metadata: when the index was created and
// where the interned root path lives in the names blob.
type indexMeta struct {
	CreatedSecs    uint64
	RootPathOffset uint32
	RootPathLen    uint32
	BuildFlags     uint32
}

// fileMeta is the fixed-size, 8-byte-aligned on-disk record for one file
//. Fields mirror FileRecord plus derived build-time data.
type fileMeta struct {
	Size       uint64
	Mtime      uint32
	Ctime      uint32
	Atime      uint32
	DirId      uint32
	NameOffset uint32
	NameLen    uint32
	ExtId      uint16
	FlagBits   uint16
	NoiseBits  uint8
	PathDepth  uint8
}

// dirMeta is the on-disk record for one directory.
type dirMeta struct {
	NameOffset uint32
	NameLen    uint32
	Parent     uint32
	FlagBits   uint16
}

// extKey locates the posting list for one extension.
type extKey struct {
	ExtId          uint16
	PostingsOffset uint32
	PostingsLen    uint32
}

// trigramKeyRec locates the posting list for one trigram. Keys are sorted
// ascending by Trigram in the on-disk key array so readers can binary
// search.
type trigramKeyRec struct {
	Trigram        uint32
	PostingsOffset uint32
	PostingsLen    uint32
}

func alignUp(v uint64) uint64 {
	const a = sectionAlignment
	return (v + a - 1) &^ (a - 1)
}
