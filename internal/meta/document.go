package meta

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/beevik/etree"

	"github.com/franz/project-janitor/internal/util"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Decode parses a project document, decompressing it first when it carries
// the gzip magic. Plain XML is accepted as-is.
func Decode(data []byte) (*etree.Document, error) {
	raw := data
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip header: %v", util.ErrCorrupt, err)
		}
		defer zr.Close()

		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip stream: %v", util.ErrCorrupt, err)
		}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: xml: %v", util.ErrCorrupt, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: document has no root element", util.ErrCorrupt)
	}

	return doc, nil
}

// container returns the element holding tracks and the master track.
// Documents normally wrap it as Ableton/LiveSet; without the wrapper the
// root itself is used.
func container(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root.Tag == "LiveSet" {
		return root
	}
	if ls := root.SelectElement("LiveSet"); ls != nil {
		return ls
	}
	return root
}

// liveVersion reads the creator string off the root element
func liveVersion(doc *etree.Document) string {
	root := doc.Root()
	if v := root.SelectAttrValue("Creator", ""); v != "" {
		return v
	}
	return root.SelectAttrValue("MinorVersion", "")
}
