// Package loader reads LC-3 memory images: flat sequences of big-endian
// words.
package loader

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/aryanA101a/lulu/vm"
)

// Options places an image in memory.
type Options struct {
	Base   vm.Word // load address of a raw image, vm.UserSpaceStart when zero
	Offset vm.Word // added to the load address
	Obj    bool    // the first word is the load address, as in .obj files
}

// Image is a decoded memory image.
type Image struct {
	Origin    vm.Word
	Words     []vm.Word
	Truncated int // words dropped past the top of memory
}

// Decode converts big-endian image bytes into words placed per opts. An odd
// trailing byte is ignored.
func Decode(data []byte, opts Options) (*Image, error) {
	origin := opts.Base
	if origin == 0 {
		origin = vm.UserSpaceStart
	}

	if opts.Obj {
		if len(data) < 2 {
			return nil, ErrNoOrigin
		}
		origin = vm.Word(binary.BigEndian.Uint16(data))
		data = data[2:]
	}
	origin += opts.Offset

	count := len(data) / 2
	if count == 0 {
		return nil, ErrEmpty
	}

	img := &Image{Origin: origin}
	room := vm.MemorySize - int(origin)
	if count > room {
		img.Truncated = count - room
		count = room
	}

	img.Words = make([]vm.Word, count)
	for n := range img.Words {
		img.Words[n] = vm.Word(binary.BigEndian.Uint16(data[2*n:]))
	}

	return img, nil
}

// Load reads and decodes the image file at path.
func Load(path string, opts Options) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ErrLoad{Path: path, Err: err}
	}

	img, err := Decode(data, opts)
	if err != nil {
		return nil, &ErrLoad{Path: path, Err: err}
	}

	if img.Truncated > 0 {
		logrus.WithFields(logrus.Fields{
			"path":      path,
			"origin":    fmt.Sprintf("0x%04x", uint16(img.Origin)),
			"truncated": img.Truncated,
		}).Warn("image runs past the top of memory")
	}

	return img, nil
}

// Into loads the image into machine memory and points the machine at its
// first word. It returns the number of words stored.
func (img *Image) Into(m *vm.VM) int {
	n := m.Load(img.Origin, img.Words)
	m.Reset(img.Origin)
	return n
}
