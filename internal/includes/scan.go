package includes

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// scanIncludes reads path line by line and extracts every #include
// token's filename, per spec.md §4.7's scanning policy: a multi-line
// block-comment state is tracked across lines, a line comment ends that
// line's contribution immediately, and preprocessor conditionals are
// ignored (a static over-approximation of the include graph).
func scanIncludes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scan includes %q: %w", path, err)
	}
	defer f.Close()

	var includes []string
	inBlockComment := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		name, nowInBlock := scanLine(line, inBlockComment)
		inBlockComment = nowInBlock
		if name != "" {
			includes = append(includes, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan includes %q: %w", path, err)
	}
	return includes, nil
}

// scanLine consumes one line of source, given whether a block comment was
// already open when the line started. It returns the #include filename
// found on this line (if any) and whether a block comment is still open
// at the line's end.
func scanLine(line string, inBlockComment bool) (includeName string, stillInBlockComment bool) {
	i := 0
	n := len(line)
	sawCode := false
	for i < n {
		if inBlockComment {
			end := strings.Index(line[i:], "*/")
			if end < 0 {
				return includeName, true
			}
			i += end + 2
			inBlockComment = false
			continue
		}
		if strings.HasPrefix(line[i:], "//") {
			break // line comment: rest of the line contributes nothing
		}
		if strings.HasPrefix(line[i:], "/*") {
			inBlockComment = true
			i += 2
			continue
		}
		c := line[i]
		if c == ' ' || c == '\t' {
			i++
			continue
		}
		if !sawCode {
			sawCode = true
			if strings.HasPrefix(line[i:], "#include") {
				rest := strings.TrimSpace(line[i+len("#include"):])
				if name, ok := extractIncludeToken(rest); ok {
					includeName = name
				}
			}
		}
		i++
	}
	return includeName, inBlockComment
}

// extractIncludeToken pulls the filename out of a "..." or <...> token
// immediately following #include.
func extractIncludeToken(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	var open, close byte
	switch s[0] {
	case '"':
		open, close = '"', '"'
	case '<':
		open, close = '<', '>'
	default:
		return "", false
	}
	_ = open
	end := strings.IndexByte(s[1:], close)
	if end < 0 {
		return "", false
	}
	return s[1 : 1+end], true
}
