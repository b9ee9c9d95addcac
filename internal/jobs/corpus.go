package jobs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/ssai/ssquiz/internal/apperr"
)

// Corpus is the document tree the learn job indexes. Files are sorted into
// one folder per extension; web/urls.txt lists pages to fetch.
type Corpus struct {
	Root string
}

var corpusFolders = map[string]string{
	".csv": "csv",
	".txt": "txt",
	".pdf": "pdf",
	".md":  "md",
}

func (c Corpus) urlsFile() string {
	return filepath.Join(c.Root, "web", "urls.txt")
}

// Prepare creates the folder layout and an empty url list.
func (c Corpus) Prepare() error {
	dirs := append(lo.Values(corpusFolders), "web")
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(c.Root, d), 0o755); err != nil {
			return fmt.Errorf("create corpus dir: %w", err)
		}
	}
	f, err := os.OpenFile(c.urlsFile(), os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create url list: %w", err)
	}
	return f.Close()
}

// URLs returns the non-blank lines of the url list that are not comments.
func (c Corpus) URLs() ([]string, error) {
	data, err := os.ReadFile(c.urlsFile())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	var urls []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

// Documents counts supported files anywhere under the root. The url list
// itself is not a document.
func (c Corpus) Documents() (int, error) {
	n := 0
	urls := c.urlsFile()
	err := filepath.WalkDir(c.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || path == urls {
			return nil
		}
		if _, ok := corpusFolders[strings.ToLower(filepath.Ext(path))]; ok {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan corpus: %w", err)
	}
	return n, nil
}

// Indexer builds the search index from the corpus.
type Indexer interface {
	Index(ctx context.Context, docsDir string, urls []string) error
}

// CommandIndexer runs an external indexing program as
// `<Command...> --input DOCS --output-dir OUT [--url U]...`.
type CommandIndexer struct {
	Command   []string
	OutputDir string
	Dir       string
}

func (ci CommandIndexer) Index(ctx context.Context, docsDir string, urls []string) error {
	if len(ci.Command) == 0 {
		return errors.New("no indexer command configured")
	}
	args := append([]string{}, ci.Command[1:]...)
	args = append(args, "--input", docsDir, "--output-dir", ci.OutputDir)
	for _, u := range urls {
		args = append(args, "--url", u)
	}

	cmd := exec.CommandContext(ctx, ci.Command[0], args...)
	cmd.Dir = ci.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run indexer: %w: %s", err, tail(out.String(), 2000))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// LearnResult is the learn-corpus job result.
type LearnResult struct {
	Documents int `json:"documents"`
	URLs      int `json:"urls"`
}

func (LearnResult) CompletionMessage() string { return "learning complete" }

type learnHandler struct {
	corpus  Corpus
	indexer Indexer
}

func NewLearnHandler(corpus Corpus, indexer Indexer) Handler {
	return &learnHandler{corpus: corpus, indexer: indexer}
}

func (h *learnHandler) Kind() string { return KindLearnCorpus }

func (h *learnHandler) Run(jc *Context) (any, error) {
	if err := h.corpus.Prepare(); err != nil {
		return nil, fail("learning failed", err)
	}
	urls, err := h.corpus.URLs()
	if err != nil {
		return nil, fail("learning failed", err)
	}
	docs, err := h.corpus.Documents()
	if err != nil {
		return nil, fail("learning failed", err)
	}
	if docs == 0 && len(urls) == 0 {
		return nil, apperr.Invalid("no documents to learn")
	}

	jc.Progress(0, "collecting documents and urls")
	jc.Progress(20, "cleaning and chunking documents")
	jc.Progress(45, "building embeddings and index")
	if err := h.indexer.Index(jc.Ctx, h.corpus.Root, urls); err != nil {
		jc.Log.Error("indexer failed", "error", err)
		return nil, fail("learning failed: the indexer did not finish", err)
	}
	jc.Progress(80, "saving index")

	return LearnResult{Documents: docs, URLs: len(urls)}, nil
}
