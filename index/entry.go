package index

import (
	"os"

	"github.com/jaredkent/gitgo/object"
)

// file-kind bits stored in the high nibble of an entry's 32-bit mode,
// as written by upstream Git (objects are always regular files: 1000)
const modeKindRegular = 0o100000

// Entry represents one staged path in the index: its stat-cache fields
// plus the oid of the blob it points to.
type Entry struct {
	CtimeSec  uint32
	CtimeNano uint32
	MtimeSec  uint32
	MtimeNano uint32
	Dev       uint32
	Ino       uint32
	Mode      uint32
	UID       uint32
	GID       uint32
	Size      uint32

	Oid object.Oid

	AssumeValid bool
	Stage       uint8

	Path string
}

// flags packs assume-valid, stage and the (possibly truncated) name
// length into the 16-bit flags field; the extended bit is always 0
func (e *Entry) flags() uint16 {
	nameLen := len(e.Path)
	if nameLen > 0xFFF {
		nameLen = 0xFFF
	}
	var f uint16
	if e.AssumeValid {
		f |= 1 << 15
	}
	f |= uint16(e.Stage&0x3) << 12
	f |= uint16(nameLen)
	return f
}

// NewEntryFromFileInfo builds an Entry for path from its working-tree
// stat info and the oid of its already-written blob.
func NewEntryFromFileInfo(path string, oid object.Oid, fi os.FileInfo) *Entry {
	mtime := fi.ModTime()
	mode := uint32(0o644)
	if fi.Mode()&0o111 != 0 {
		mode = 0o755
	}

	return &Entry{
		CtimeSec:  uint32(mtime.Unix()),
		CtimeNano: uint32(mtime.Nanosecond()),
		MtimeSec:  uint32(mtime.Unix()),
		MtimeNano: uint32(mtime.Nanosecond()),
		Mode:      modeKindRegular | mode,
		Size:      uint32(fi.Size()),
		Oid:       oid,
		Path:      path,
	}
}
