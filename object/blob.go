package object

// Blob is the raw-content object variant. Its payload is the file's
// bytes verbatim: no normalisation, no metadata, so parse and
// serialise are both the identity function.
type Blob struct {
	rawObject *Object
}

// NewBlob wraps an Object as a Blob
func NewBlob(o *Object) *Blob {
	return &Blob{rawObject: o}
}

// ID returns the blob's ID
func (b *Blob) ID() Oid {
	return b.rawObject.ID()
}

// Size returns the size of the blob's content in bytes
func (b *Blob) Size() int {
	return len(b.rawObject.content)
}

// Bytes returns the blob's content. The returned slice aliases the
// underlying object; use BytesCopy when the caller may mutate it.
func (b *Blob) Bytes() []byte {
	return b.rawObject.content
}

// BytesCopy returns an independent copy of the blob's content
func (b *Blob) BytesCopy() []byte {
	out := make([]byte, len(b.rawObject.content))
	copy(out, b.rawObject.content)
	return out
}

// IsPersisted returns whether the object has an ID. Objects built with
// New always have one; the object database is not checked.
func (b *Blob) IsPersisted() bool {
	return b.rawObject.id != NullOid
}

// ToObject returns the blob's underlying Object
func (b *Blob) ToObject() *Object {
	return b.rawObject
}
