package manifest

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

var depNameRE = regexp.MustCompile(`^([a-zA-Z0-9][-a-zA-Z0-9._]*)`)

// Requirements parses pip requirements files (requirements.txt,
// requirements-dev.txt, ...). Options, editable installs and URLs are skipped.
type Requirements struct{}

func (r *Requirements) Type() string { return "requirements.txt" }

func (r *Requirements) Supports(name string) bool {
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

func (r *Requirements) Parse(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '-' {
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}
		if m := depNameRE.FindStringSubmatch(line); len(m) > 1 {
			names = append(names, m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &Result{Type: r.Type(), Packages: dedupe(names)}, nil
}

// requirementName extracts the distribution name from a PEP 508 string such
// as "requests[socks]>=2.0; python_version>'3.8'".
func requirementName(spec string) string {
	m := depNameRE.FindStringSubmatch(strings.TrimSpace(spec))
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
