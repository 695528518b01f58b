// Package corpus reads product documentation and cookbook files from disk and
// prepares them for embedding.
//
// Two file classes exist. Markup files (.md/.mdx) must carry a front-matter
// block naming the page title and optionally a description; files without one
// are dropped and counted. Every other file is a cookbook: the filename is the
// title and the raw content is kept verbatim.
package corpus

// Built-in dataset identifiers. They double as the partition keys in the
// vector index.
const (
	DatasetDocumentation = "dataset_documentation"
	DatasetCookbooks     = "dataset_cookbooks"
)

// Document is one parsed corpus file before normalization.
type Document struct {
	SourceID    string // originating filename
	Title       string
	Description string
	Body        string // raw body text, front matter already removed
	Markup      bool   // true for .md/.mdx sources
}

// Chunk is the embedding unit derived from a document.
type Chunk struct {
	Title       string
	Description string
	Text        string
}

// Dataset groups the chunks sharing one partition of the vector index.
type Dataset struct {
	ID     string
	Chunks []Chunk
}

// Chunk converts the document into its embedding unit. Markup bodies are
// normalized; cookbook content stays verbatim.
func (d Document) Chunk() Chunk {
	text := d.Body
	if d.Markup {
		text = Normalize(text)
	}
	return Chunk{Title: d.Title, Description: d.Description, Text: text}
}

// EmbedInput returns the canonical string fed to the embedder. The same
// string is stored as the entry content in the index, so retrieval returns
// exactly what was embedded.
func (c Chunk) EmbedInput() string {
	return "title:" + c.Title + "_description:" + c.Description + "_content:" + c.Text
}
