package token

const (
	lineBits = 20
	colBits  = 32 - lineBits

	// MaxLines is the maximum 1-based line number value that can be encoded in
	// Pos.
	MaxLines = (1 << lineBits) - 1
	// MaxCols is the maximum 1-based column number value that can be encoded in
	// Pos.
	MaxCols = (1 << colBits) - 1

	lineMask = MaxLines
	colMask  = MaxCols
)

// Pos is an efficient encoding of a 1-based line and column position in a
// 32-bit unsigned integer. A value of 0 for either line or column is
// interpreted as "unknown".
type Pos uint32

// MakePos creates a Pos value encoding the provided line and col. It is the
// caller's responsibility to ensure the values are > 0 and <= the maximum
// allowed.
func MakePos(line, col int) Pos {
	return Pos(col<<lineBits | line)
}

// LineCol returns the line and column values encoded in Pos.
func (p Pos) LineCol() (int, int) {
	l := p & lineMask
	c := (p >> lineBits) & colMask
	return int(l), int(c)
}

// Unknown reports whether either the line or column is unknown.
func (p Pos) Unknown() bool {
	l, c := p.LineCol()
	return l == 0 || c == 0
}

// File tracks line-start byte offsets for a single source file, so that a
// byte offset can be translated to a 1-based line/column Pos on demand.
type File struct {
	Name string
	Size int

	lineStarts []int // byte offset of the start of each line; line 1 starts at lineStarts[0] == 0
}

// NewFile creates a File for the given name and size, with line 1 starting
// at offset 0.
func NewFile(name string, size int) *File {
	return &File{Name: name, Size: size, lineStarts: []int{0}}
}

// AddLine records that a new line begins at the given byte offset. Offsets
// must be added in increasing order.
func (f *File) AddLine(offset int) {
	if n := len(f.lineStarts); n == 0 || f.lineStarts[n-1] < offset {
		f.lineStarts = append(f.lineStarts, offset)
	}
}

// Pos translates a byte offset into a Pos (1-based line/column).
func (f *File) Pos(offset int) Pos {
	line := 1
	for i := len(f.lineStarts) - 1; i >= 0; i-- {
		if f.lineStarts[i] <= offset {
			line = i + 1
			col := offset - f.lineStarts[i] + 1
			return MakePos(line, col)
		}
	}
	return MakePos(1, offset+1)
}
