package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliSchema = `
entity Person data "people" {
  name: String;
  born: Date [0..1];
  tags: String [*];
}

entity Author sub Person {
  books: Integer [0..1] = 0;
}

entity Book {
  title: String;
  writer: Author [0..1];
}
`

type workspace struct {
	dir    string
	config string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	w := &workspace{dir: dir, config: filepath.Join(dir, "entityc.yaml")}
	w.write(t, "schema.ent", cliSchema)
	cfg := "schema:\n  path: " + filepath.Join(dir, "schema.ent") +
		"\nadapter:\n  dsn: " + filepath.Join(dir, "data.db") +
		"\nlogging:\n  level: error\n"
	w.write(t, "entityc.yaml", cfg)
	return w
}

func (w *workspace) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(w.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (w *workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", w.config}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestTreeCmd(t *testing.T) {
	w := newWorkspace(t)

	out, err := w.run(t, "tree")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Entity"))
	assert.Equal(t, "  Book (adapter=default)", lines[1])
	assert.Equal(t, "  Person (adapter=default)", lines[2])
	assert.Equal(t, "    Author", lines[3])

	out, err = w.run(t, "tree", "--attributes")
	require.NoError(t, err)
	assert.Contains(t, out, "  - writer: -> Author [0..1]")
	assert.Contains(t, out, "  - books: Integer [0..1] = 0")
}

func TestValidateCmd(t *testing.T) {
	w := newWorkspace(t)
	recs := w.write(t, "people.yaml", `
- name: Ann
  tags: [poet]
- tags: [nameless]
- name: Bob
  born: not-a-date
`)

	out, err := w.run(t, "validate", "Person", recs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 records invalid")
	assert.Contains(t, out, "record 1: ok")
	assert.Contains(t, out, "record 2: invalid")
	assert.Contains(t, out, "record 3: invalid")

	one := w.write(t, "one.yaml", "name: Cy\n")
	out, err = w.run(t, "validate", "Person", one)
	require.NoError(t, err)
	assert.Equal(t, "record 1: ok\n", out)

	_, err = w.run(t, "validate", "Nobody", one)
	assert.Error(t, err)
	_, err = w.run(t, "validate", "Entity", one)
	assert.Error(t, err)
}

func TestSaveGetListDelete(t *testing.T) {
	w := newWorkspace(t)
	authors := w.write(t, "authors.yaml", `
- name: Iain
  born: "1954-02-16T00:00:00Z"
  books: 2
`)

	out, err := w.run(t, "save", "Author", authors)
	require.NoError(t, err)
	authorID := strings.TrimSpace(out)
	require.NotEmpty(t, authorID)

	books := w.write(t, "books.yaml", "title: Excession\nwriter: "+authorID+"\n")
	out, err = w.run(t, "save", "Book", books)
	require.NoError(t, err)
	bookID := strings.TrimSpace(out)

	out, err = w.run(t, "get", "Book", bookID)
	require.NoError(t, err)
	assert.Contains(t, out, "title: Excession")
	assert.Contains(t, out, authorID)

	out, err = w.run(t, "get", "Author", authorID)
	require.NoError(t, err)
	assert.Contains(t, out, "name: Iain")
	assert.Contains(t, out, "books: 2")
	assert.Contains(t, out, "1954-02-16T00:00:00Z")

	out, err = w.run(t, "list", "Author")
	require.NoError(t, err)
	assert.Contains(t, out, "entity: Author")

	out, err = w.run(t, "delete", "Book", bookID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted Book "+bookID)

	_, err = w.run(t, "get", "Book", bookID)
	assert.Error(t, err)
}

func TestSaveCmd_Invalid(t *testing.T) {
	w := newWorkspace(t)
	recs := w.write(t, "bad.yaml", "- tags: [x]\n")
	_, err := w.run(t, "save", "Person", recs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
}

func TestGenCmd(t *testing.T) {
	w := newWorkspace(t)
	out, err := w.run(t, "gen", "--pkg", "library")
	require.NoError(t, err)
	assert.Contains(t, out, "package library")
	assert.Contains(t, out, "func Register(tree *entity.Tree)")
	assert.Contains(t, out, `AuthorEntity = "Author"`)

	path := filepath.Join(w.dir, "entities_gen.go")
	_, err = w.run(t, "gen", "--out", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "package models")
}

func TestVersionCmd(t *testing.T) {
	w := &workspace{config: filepath.Join(t.TempDir(), "missing.yaml")}
	out, err := w.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "entityc "+version+"\n", out)
}

func TestBadConfig(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "entityc.yaml", "logging:\n  format: xml\n")
	_, err := w.run(t, "tree")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}
