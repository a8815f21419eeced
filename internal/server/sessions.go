package server

import (
	"sort"
	"sync"

	"github.com/ironsheep/image-tone/internal/imaging"
	"github.com/ironsheep/image-tone/internal/tone"
)

// openImage is a tone session for one image file.
type openImage struct {
	path    string
	info    *imaging.ImageInfo
	session *tone.Session

	// history lists the operations applied since the image was opened or
	// last reset.
	history []string
}

// sessionTable holds open images keyed by the path they were loaded from.
type sessionTable struct {
	mu     sync.Mutex
	images map[string]*openImage
}

func newSessionTable() *sessionTable {
	return &sessionTable{images: make(map[string]*openImage)}
}

func (t *sessionTable) get(path string) (*openImage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	img, ok := t.images[path]
	return img, ok
}

func (t *sessionTable) put(img *openImage) {
	t.mu.Lock()
	t.images[img.path] = img
	t.mu.Unlock()
}

func (t *sessionTable) remove(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.images[path]
	delete(t.images, path)
	return ok
}

// paths returns the open paths in sorted order.
func (t *sessionTable) paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.images))
	for p := range t.images {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
