package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// collectIDs gathers identifiers from positional args and, if path is set,
// from a file with one identifier per line. Blank lines and lines starting
// with # are skipped. A path of "-" reads standard input.
func collectIDs(cmd *cobra.Command, args []string, path string) ([][]byte, error) {
	ids := make([][]byte, 0, len(args))
	for _, arg := range args {
		ids = append(ids, []byte(arg))
	}

	if path != "" {
		fromFile, err := readIDs(cmd.InOrStdin(), path)
		if err != nil {
			return nil, err
		}
		ids = append(ids, fromFile...)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no identifiers given")
	}
	return ids, nil
}

func readIDs(stdin io.Reader, path string) ([][]byte, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open id list: %w", err)
		}
		defer f.Close()
		r = f
	}

	var ids [][]byte
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, []byte(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read id list: %w", err)
	}
	return ids, nil
}
