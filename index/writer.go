package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"
)

// Write serializes a Staged index to path atomically: it writes to
// a temporary file in the same directory, fsyncs it, renames it into
// place, and on Unix fsyncs the parent directory too. A partial write
// never reaches the final path.
func Write(path string, st *Staged, buildFlags uint32) error {
	data := encodeStaged(st, buildFlags)

	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".blaze-index-*.tmp")
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("index: writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("index: fsync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("index: closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("index: renaming %s: %w", tmpName, err)
	}

	if runtime.GOOS != "windows" {
		if pd, err := os.Open(dir); err == nil {
			pd.Sync()
			pd.Close()
		}
	}
	return nil
}

// encodeStaged packs a Staged index into its final on-disk byte layout,
// including header CRC32.
func encodeStaged(st *Staged, buildFlags uint32) []byte {
	sections := [numSections][]byte{
		secMeta:               encodeMeta(indexMeta{st.CreatedSecs, st.RootPathOffset, st.RootPathLen, buildFlags}),
		secExtTable:           encodeExtTable(st.ExtTable),
		secDirs:               encodeDirs(st.Dirs),
		secFilesMeta:          encodeFiles(st.Files),
		secNamesBlob:          st.NamesBlob,
		secExtIndexKeys:       encodeExtKeys(st.ExtKeys),
		secExtIndexPostings:   encodeU32Slice(st.ExtPostings),
		secTrigramKeys:        encodeTrigramKeys(st.FileTrigramKeys),
		secTrigramPostings:    encodeU32Slice(st.FileTrigramPostings),
		secDirTrigramKeys:     encodeTrigramKeys(st.DirTrigramKeys),
		secDirTrigramPostings: encodeU32Slice(st.DirTrigramPostings),
	}
	// ext_table and names_blob need no alignment padding before them; every
	// other section is rounded up to an 8-byte boundary.
	noAlignBefore := [numSections]bool{secExtTable: true, secNamesBlob: true}

	var body bytes.Buffer
	var descs [numSections]sectionDesc
	cur := uint64(headerSize)
	for i, data := range sections {
		if !noAlignBefore[i] {
			target := alignUp(cur)
			writePadding(&body, target-cur)
			cur = target
		}
		descs[i] = sectionDesc{Offset: cur, Len: uint64(len(data))}
		body.Write(data)
		cur += uint64(len(data))
	}

	h := header{
		Magic:      magic,
		Version:    version,
		HeaderSize: headerSize,
		BuildFlags: buildFlags,
		FileCount:  uint32(len(st.Files)),
		DirCount:   uint32(len(st.Dirs)),
		ExtCount:   uint32(len(st.ExtTable)),
		Sections:   descs,
	}
	headerBytes := encodeHeader(h)
	sum := crc32.ChecksumIEEE(headerBytes)
	binary.LittleEndian.PutUint32(headerBytes[12:16], sum)

	out := make([]byte, 0, len(headerBytes)+body.Len())
	out = append(out, headerBytes...)
	out = append(out, body.Bytes()...)
	return out
}

func writePadding(buf *bytes.Buffer, n uint64) {
	for i := uint64(0); i < n; i++ {
		buf.WriteByte(0)
	}
}

func encodeHeader(h header) []byte {
	b := make([]byte, headerSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:4], h.Magic)
	le.PutUint32(b[4:8], h.Version)
	le.PutUint32(b[8:12], h.HeaderSize)
	le.PutUint32(b[12:16], h.HeaderCRC32)
	le.PutUint32(b[16:20], h.BuildFlags)
	le.PutUint32(b[20:24], h.FileCount)
	le.PutUint32(b[24:28], h.DirCount)
	le.PutUint32(b[28:32], h.ExtCount)
	// b[32:48] is the 16 reserved bytes, left zero.
	off := headerFixedSize
	for _, d := range h.Sections {
		le.PutUint64(b[off:off+8], d.Offset)
		le.PutUint64(b[off+8:off+16], d.Len)
		le.PutUint32(b[off+16:off+20], d.Flags)
		// b[off+20:off+24] reserved, left zero.
		off += sectionDescSize
	}
	return b
}

func encodeMeta(m indexMeta) []byte {
	b := make([]byte, metaRecordSize)
	le := binary.LittleEndian
	le.PutUint64(b[0:8], m.CreatedSecs)
	le.PutUint32(b[8:12], m.RootPathOffset)
	le.PutUint32(b[12:16], m.RootPathLen)
	le.PutUint32(b[16:20], m.BuildFlags)
	return b
}

func encodeExtTable(exts []string) []byte {
	var buf bytes.Buffer
	for _, e := range exts {
		buf.WriteString(e)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func encodeDirs(dirs []dirMeta) []byte {
	b := make([]byte, len(dirs)*dirMetaRecordSize)
	le := binary.LittleEndian
	for i, d := range dirs {
		o := i * dirMetaRecordSize
		le.PutUint32(b[o:o+4], d.NameOffset)
		le.PutUint32(b[o+4:o+8], d.NameLen)
		le.PutUint32(b[o+8:o+12], d.Parent)
		le.PutUint16(b[o+12:o+14], d.FlagBits)
	}
	return b
}

func encodeFiles(files []fileMeta) []byte {
	b := make([]byte, len(files)*fileMetaRecordSize)
	le := binary.LittleEndian
	for i, f := range files {
		o := i * fileMetaRecordSize
		le.PutUint64(b[o:o+8], f.Size)
		le.PutUint32(b[o+8:o+12], f.Mtime)
		le.PutUint32(b[o+12:o+16], f.Ctime)
		le.PutUint32(b[o+16:o+20], f.Atime)
		le.PutUint32(b[o+20:o+24], f.DirId)
		le.PutUint32(b[o+24:o+28], f.NameOffset)
		le.PutUint32(b[o+28:o+32], f.NameLen)
		le.PutUint16(b[o+32:o+34], f.ExtId)
		le.PutUint16(b[o+34:o+36], f.FlagBits)
		b[o+36] = f.NoiseBits
		b[o+37] = f.PathDepth
		// b[o+38:o+48] reserved, left zero.
	}
	return b
}

func encodeExtKeys(keys []extKey) []byte {
	b := make([]byte, len(keys)*extKeyRecordSize)
	le := binary.LittleEndian
	for i, k := range keys {
		o := i * extKeyRecordSize
		le.PutUint16(b[o:o+2], k.ExtId)
		le.PutUint32(b[o+4:o+8], k.PostingsOffset)
		le.PutUint32(b[o+8:o+12], k.PostingsLen)
	}
	return b
}

func encodeTrigramKeys(keys []trigramKeyRec) []byte {
	b := make([]byte, len(keys)*trigramKeyRecordSize)
	le := binary.LittleEndian
	for i, k := range keys {
		o := i * trigramKeyRecordSize
		le.PutUint32(b[o:o+4], k.Trigram)
		le.PutUint32(b[o+4:o+8], k.PostingsOffset)
		le.PutUint32(b[o+8:o+12], k.PostingsLen)
	}
	return b
}

func encodeU32Slice(xs []uint32) []byte {
	b := make([]byte, len(xs)*4)
	le := binary.LittleEndian
	for i, x := range xs {
		le.PutUint32(b[i*4:i*4+4], x)
	}
	return b
}
