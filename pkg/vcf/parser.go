package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var geneCleanRe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
var geneSplitRe = regexp.MustCompile(`[|,/&]`)

// Parse reads and parses the annotated VCF file at path.
func Parse(path string) (*Result, error) {
	if path == "" {
		return nil, ErrMissingPath
	}

	resolved := expandHome(path)
	f, err := os.Open(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("vcf: failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ParseReader(f, path)
}

// ParseReader parses VCF content from r. The path is recorded in the
// result for reporting only.
func ParseReader(r io.Reader, path string) (*Result, error) {
	genes := make(map[string][]Variant)
	total := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) < 8 {
			continue
		}

		info := parseInfo(fields[7])
		annotations := parseAnn(info["ANN"])
		variant := buildVariant(fields, info, annotations)

		symbols := extractGeneSymbols(info, annotations)
		if len(symbols) == 0 {
			symbols = []string{UnknownGene}
		}

		for _, gene := range symbols {
			entry := variant
			if matched := annotationsForGene(annotations, gene); len(matched) > 0 {
				entry.Annotations = matched
			}
			genes[gene] = append(genes[gene], entry)
			total++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vcf: failed to read %s: %w", path, err)
	}

	symbols := make([]string, 0, len(genes))
	for gene := range genes {
		symbols = append(symbols, gene)
	}
	sort.Strings(symbols)

	result := &Result{
		Path:          path,
		TotalVariants: total,
		Genes:         make([]GeneVariants, 0, len(symbols)),
		Summary:       fmt.Sprintf("Identified %d genes with reported mutations.", len(genes)),
	}
	for _, gene := range symbols {
		result.Genes = append(result.Genes, GeneVariants{
			Gene:         gene,
			VariantCount: len(genes[gene]),
			Variants:     genes[gene],
		})
	}
	return result, nil
}

// parseInfo splits the INFO column into a key-value map.
// Bare flags map to the string "true".
func parseInfo(value string) map[string]string {
	info := make(map[string]string)
	if value == "" {
		return info
	}
	for _, item := range strings.Split(value, ";") {
		if item == "" {
			continue
		}
		if key, val, found := strings.Cut(item, "="); found {
			info[key] = val
		} else {
			info[item] = "true"
		}
	}
	return info
}

// parseAnn decodes the snpEff ANN value into annotations, padding short
// records to the full 19-field layout.
func parseAnn(value string) []Annotation {
	if value == "" {
		return nil
	}
	var annotations []Annotation
	for _, record := range strings.Split(value, ",") {
		parts := strings.Split(record, "|")
		padded := make([]string, len(annFields))
		copy(padded, parts)
		annotations = append(annotations, Annotation{
			Effect:     padded[1],
			Impact:     padded[2],
			Gene:       padded[3],
			Transcript: padded[6],
			HGVSc:      padded[9],
			HGVSp:      padded[10],
		})
	}
	return annotations
}

func buildVariant(fields []string, info map[string]string, annotations []Annotation) Variant {
	pos, _ := strconv.Atoi(fields[1])

	id := fields[2]
	if id == "." {
		id = ""
	}

	var genotype string
	if len(fields) >= 10 && fields[8] != "" && fields[9] != "" {
		keys := strings.Split(fields[8], ":")
		values := strings.Split(fields[9], ":")
		for i, key := range keys {
			if key == "GT" && i < len(values) {
				genotype = values[i]
				break
			}
		}
	}

	effectSet := make(map[string]struct{})
	for _, ann := range annotations {
		if ann.Effect != "" {
			effectSet[ann.Effect] = struct{}{}
		}
	}
	effects := make([]string, 0, len(effectSet))
	for effect := range effectSet {
		effects = append(effects, effect)
	}
	sort.Strings(effects)

	var impact string
	for _, ann := range annotations {
		if ann.Impact != "" {
			impact = ann.Impact
			break
		}
	}

	return Variant{
		Chrom:                fields[0],
		Position:             pos,
		Ref:                  fields[3],
		Alt:                  fields[4],
		ID:                   id,
		Genotype:             genotype,
		Annotations:          annotations,
		Effects:              effects,
		Impact:               impact,
		ClinicalSignificance: info["CLNSIG"],
	}
}

// extractGeneSymbols collects gene symbols from INFO keys mentioning
// gene, symbol or hgnc, from GENEINFO pairs and from ANN records.
func extractGeneSymbols(info map[string]string, annotations []Annotation) []string {
	candidates := make(map[string]struct{})

	for key, value := range info {
		lowered := strings.ToLower(key)
		if lowered == "geneinfo" {
			// GENEINFO pairs are SYMBOL:GeneID.
			for _, pair := range strings.Split(value, "|") {
				symbol, _, _ := strings.Cut(pair, ":")
				cleaned := geneCleanRe.ReplaceAllString(strings.TrimSpace(symbol), "")
				if cleaned != "" {
					candidates[strings.ToUpper(cleaned)] = struct{}{}
				}
			}
			continue
		}
		if strings.Contains(lowered, "gene") ||
			strings.Contains(lowered, "symbol") ||
			strings.Contains(lowered, "hgnc") {
			for _, token := range geneSplitRe.Split(value, -1) {
				token = strings.TrimSpace(token)
				// Prefixed identifiers like HGNC:MTHFR keep the last segment.
				if idx := strings.LastIndex(token, ":"); idx >= 0 {
					token = token[idx+1:]
				}
				cleaned := geneCleanRe.ReplaceAllString(token, "")
				if cleaned != "" {
					candidates[strings.ToUpper(cleaned)] = struct{}{}
				}
			}
		}
	}

	for _, ann := range annotations {
		if ann.Gene != "" {
			candidates[strings.ToUpper(ann.Gene)] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(candidates))
	for symbol := range candidates {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func annotationsForGene(annotations []Annotation, gene string) []Annotation {
	var matched []Annotation
	for _, ann := range annotations {
		if strings.ToUpper(ann.Gene) == gene {
			matched = append(matched, ann)
		}
	}
	return matched
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
