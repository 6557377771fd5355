// Package genome provides the chromosome collection the block finder works
// on and loads it from FASTA files.
package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/syntenyfinder/internal/dna"
)

// Chromosome is one input sequence. ID is its position in the collection.
type Chromosome struct {
	ID          int
	Description string
	Sequence    string
}

// Name returns the first word of the FASTA description.
func (c *Chromosome) Name() string {
	if idx := strings.IndexAny(c.Description, " \t"); idx != -1 {
		return c.Description[:idx]
	}
	return c.Description
}

// FASTALoader reads chromosomes from one or more FASTA files, numbering them
// in file and record order.
type FASTALoader struct {
	chromosomes []*Chromosome
}

// NewFASTALoader creates an empty loader.
func NewFASTALoader() *FASTALoader {
	return &FASTALoader{}
}

// Load parses a FASTA file and appends its records.
func (l *FASTALoader) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	if err := l.parseFASTA(reader); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// parseFASTA parses FASTA content. Sequence lines are concatenated with all
// whitespace removed and upper-cased; any other symbol outside dna.Alphabet
// is an error.
func (l *FASTALoader) parseFASTA(reader io.Reader) error {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 256*1024*1024)

	var current *Chromosome
	var seq strings.Builder
	flush := func() error {
		if current == nil {
			return nil
		}
		if seq.Len() == 0 {
			return fmt.Errorf("record %q has no sequence", current.Description)
		}
		current.Sequence = seq.String()
		l.chromosomes = append(l.chromosomes, current)
		return nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, ";"):
			continue
		case strings.HasPrefix(line, ">"):
			if err := flush(); err != nil {
				return err
			}
			current = &Chromosome{
				ID:          len(l.chromosomes),
				Description: strings.TrimSpace(line[1:]),
			}
			seq.Reset()
		default:
			if current == nil {
				return fmt.Errorf("sequence data before the first header")
			}
			data := strings.ToUpper(strings.Join(strings.Fields(line), ""))
			if i := dna.InvalidSymbol(data); i != -1 {
				return fmt.Errorf("line %d: invalid sequence symbol %q in record %q", lineNo, data[i], current.Description)
			}
			seq.WriteString(data)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan FASTA: %w", err)
	}
	return flush()
}

// Chromosomes returns the loaded chromosomes.
func (l *FASTALoader) Chromosomes() []*Chromosome {
	return l.chromosomes
}

// LoadFASTA reads every file in order and returns the combined collection.
func LoadFASTA(paths ...string) ([]*Chromosome, error) {
	l := NewFASTALoader()
	for _, p := range paths {
		if err := l.Load(p); err != nil {
			return nil, err
		}
	}
	return l.Chromosomes(), nil
}
