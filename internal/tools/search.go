// ABOUTME: `search` handler: code-definition search by default, web search via Brave when args[0] is "web"
// ABOUTME: Go files are scanned via the AST; other languages fall back to per-language regexes

package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/corepilot/agentcore/internal/permission"
	"github.com/corepilot/agentcore/internal/types"
)

const (
	maxDefResults  = 200
	braveSearchURL = "https://api.search.brave.com/res/v1/web/search"
)

// handleSearch dispatches on an optional "web" subcommand (args[0]=="web");
// otherwise it treats args[0] as a name/regex pattern to match against code
// definitions (args[1] = directory, default "."; args[2] = language hint).
func (e *Executor) handleSearch(ctx context.Context, args []string, _ string, _ bool) (types.ToolResult, error) {
	if len(args) > 0 && args[0] == "web" {
		return e.searchWeb(ctx, args[1:])
	}
	return e.searchDefinitions(args)
}

func (e *Executor) searchWeb(ctx context.Context, rest []string) (types.ToolResult, error) {
	if len(rest) == 0 {
		return errResult(fmt.Errorf("missing required argument %q", "query")), nil
	}
	query := strings.Join(rest, " ")

	apiKey := os.Getenv("BRAVE_SEARCH_API_KEY")
	if apiKey == "" {
		return errResult(fmt.Errorf("BRAVE_SEARCH_API_KEY not set")), nil
	}

	u, _ := url.Parse(braveSearchURL)
	q := u.Query()
	q.Set("q", query)
	q.Set("count", "10")
	u.RawQuery = q.Encode()

	if err := permission.ValidateAPIURL(u.String()); err != nil {
		return errResult(fmt.Errorf("refusing search request: %w", err)), nil
	}

	client := e.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errResult(fmt.Errorf("creating search request: %w", err)), nil
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return errResult(fmt.Errorf("search request failed: %w", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errResult(fmt.Errorf("search API returned %d: %s", resp.StatusCode, string(body))), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1*1024*1024))
	if err != nil {
		return errResult(fmt.Errorf("reading search response: %w", err)), nil
	}

	var result braveSearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return errResult(fmt.Errorf("parsing search response: %w", err)), nil
	}

	return okResult(formatSearchResults(query, result)), nil
}

type braveSearchResult struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func formatSearchResults(query string, result braveSearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Search results for: %s\n\n", query)

	for i, r := range result.Web.Results {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, r.Title, r.URL)
		if r.Description != "" {
			fmt.Fprintf(&b, "   %s\n", r.Description)
		}
		b.WriteString("\n")
	}

	if len(result.Web.Results) == 0 {
		b.WriteString("No results found.\n")
	}

	return b.String()
}

func (e *Executor) searchDefinitions(args []string) (types.ToolResult, error) {
	pattern, err := requireArg(args, 0, "pattern")
	if err != nil {
		return errResult(err), nil
	}

	root := "."
	if len(args) > 1 {
		root = args[1]
	}
	if !filepath.IsAbs(root) && e.cwd != "" {
		root = filepath.Join(e.cwd, root)
	}

	lang := ""
	if len(args) > 2 {
		lang = args[2]
	}
	if lang == "" {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			lang = "go"
		}
	}

	nameRe, err := regexp.Compile(pattern)
	if err != nil {
		return errResult(fmt.Errorf("invalid pattern: %w", err)), nil
	}

	var results []defResult
	if lang == "go" {
		results = searchGoAST(root, nameRe)
	} else {
		results = searchRegex(root, lang, nameRe)
	}

	if len(results) == 0 {
		return okResult("no definitions found"), nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].file != results[j].file {
			return results[i].file < results[j].file
		}
		return results[i].line < results[j].line
	})

	var b strings.Builder
	for i, r := range results {
		if i >= maxDefResults {
			fmt.Fprintf(&b, "\n... truncated at %d results", maxDefResults)
			break
		}
		fmt.Fprintf(&b, "%s:%d: %s %s\n", r.file, r.line, r.kind, r.name)
	}
	return okResult(strings.TrimSpace(b.String())), nil
}

// defResult holds a single definition match.
type defResult struct {
	file string
	line int
	kind string
	name string
}

// searchGoAST walks Go files and uses AST to find definitions.
func searchGoAST(root string, nameRe *regexp.Regexp) []defResult {
	fset := token.NewFileSet()
	var results []defResult

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if shouldSkipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if len(results) >= maxDefResults {
			return fs.SkipAll
		}

		f, parseErr := parser.ParseFile(fset, path, nil, 0)
		if parseErr != nil {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		if rel == "" {
			rel = path
		}

		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if !nameRe.MatchString(d.Name.Name) {
					continue
				}
				pos := fset.Position(d.Pos())
				if d.Recv != nil && len(d.Recv.List) > 0 {
					recv := receiverTypeName(d.Recv.List[0].Type)
					results = append(results, defResult{
						file: rel, line: pos.Line,
						kind: "method", name: fmt.Sprintf("(%s) %s", recv, d.Name.Name),
					})
				} else {
					results = append(results, defResult{
						file: rel, line: pos.Line,
						kind: "func", name: d.Name.Name,
					})
				}

			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok || !nameRe.MatchString(ts.Name.Name) {
						continue
					}
					pos := fset.Position(ts.Pos())
					kind := "type"
					switch ts.Type.(type) {
					case *ast.StructType:
						kind = "struct"
					case *ast.InterfaceType:
						kind = "interface"
					}
					results = append(results, defResult{
						file: rel, line: pos.Line, kind: kind, name: ts.Name.Name,
					})
				}
			}
		}
		return nil
	})
	return results
}

// receiverTypeName extracts the type name from a method receiver.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return "?"
	}
}

// langPatterns maps languages to regex patterns that match definitions.
var langPatterns = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`^\s*(def|class)\s+(\w+)`),
	"javascript": regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?(?:function|class|const|let|var)\s+(\w+)`),
	"typescript": regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?(?:function|class|interface|type|enum|const|let|var)\s+(\w+)`),
	"rust":       regexp.MustCompile(`^\s*(?:pub\s+)?(?:fn|struct|enum|trait|type|impl|mod)\s+(\w+)`),
	"ruby":       regexp.MustCompile(`^\s*(?:def|class|module)\s+(\w+)`),
	"java":       regexp.MustCompile(`^\s*(?:public|private|protected|static|final|abstract)?\s*(?:class|interface|enum|record)\s+(\w+)`),
}

// langExtensions maps languages to file extensions.
var langExtensions = map[string][]string{
	"python":     {".py"},
	"javascript": {".js", ".jsx", ".mjs"},
	"typescript": {".ts", ".tsx"},
	"rust":       {".rs"},
	"ruby":       {".rb"},
	"java":       {".java"},
}

// searchRegex walks files and uses regex to find definitions.
func searchRegex(root, lang string, nameRe *regexp.Regexp) []defResult {
	type langMatch struct {
		pattern *regexp.Regexp
		exts    map[string]bool
	}
	var matchers []langMatch

	if lang != "" {
		p, ok := langPatterns[lang]
		if !ok {
			return nil
		}
		exts := make(map[string]bool)
		for _, ext := range langExtensions[lang] {
			exts[ext] = true
		}
		matchers = append(matchers, langMatch{pattern: p, exts: exts})
	} else {
		for l, p := range langPatterns {
			exts := make(map[string]bool)
			for _, ext := range langExtensions[l] {
				exts[ext] = true
			}
			matchers = append(matchers, langMatch{pattern: p, exts: exts})
		}
	}

	var results []defResult

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if shouldSkipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if len(results) >= maxDefResults {
			return fs.SkipAll
		}

		ext := filepath.Ext(path)
		for _, m := range matchers {
			if !m.exts[ext] {
				continue
			}
			found := scanFileForDefs(path, root, m.pattern, nameRe, &results)
			if found || len(results) >= maxDefResults {
				break
			}
		}
		if len(results) >= maxDefResults {
			return fs.SkipAll
		}
		return nil
	})
	return results
}

// scanFileForDefs scans a single file for definition matches and appends to results.
func scanFileForDefs(path, root string, defPattern, nameRe *regexp.Regexp, results *[]defResult) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	rel, _ := filepath.Rel(root, path)
	if rel == "" {
		rel = path
	}

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		matches := defPattern.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		defName := matches[len(matches)-1]
		if !nameRe.MatchString(defName) {
			continue
		}
		*results = append(*results, defResult{
			file: rel, line: lineNum,
			kind: "def", name: strings.TrimSpace(line),
		})
		if len(*results) >= maxDefResults {
			return true
		}
	}
	return true
}
