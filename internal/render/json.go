package render

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/thiagokokada/gitlanes/internal/lanegraph"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is the JSON shape handed to web renderers.
type Document struct {
	Lanes   int      `json:"lanes"`
	Palette []string `json:"palette"`
	Rows    []Row    `json:"rows"`
}

type Row struct {
	Commit lanegraph.Commit     `json:"commit"`
	Refs   []string             `json:"refs,omitempty"`
	Layout lanegraph.Assignment `json:"layout"`
}

func NewDocument(rows []lanegraph.Assignment, commits []lanegraph.Commit, palette lanegraph.Palette, labels map[string][]string) Document {
	doc := Document{Palette: palette, Rows: make([]Row, 0, len(rows))}
	for i, row := range rows {
		doc.Lanes = max(doc.Lanes, row.Lane+1)
		for _, lane := range row.NextLanes {
			doc.Lanes = max(doc.Lanes, lane+1)
		}
		out := Row{Layout: row}
		if i < len(commits) {
			out.Commit = commits[i]
		} else {
			out.Commit.SHA = row.SHA
		}
		out.Refs = labels[row.SHA]
		doc.Rows = append(doc.Rows, out)
	}
	return doc
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	err := json.NewDecoder(r).Decode(&doc)
	return doc, err
}
