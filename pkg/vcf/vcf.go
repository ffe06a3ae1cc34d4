// Package vcf parses snpEff-annotated VCF files into gene-centric
// variant records for downstream health reporting.
package vcf

import "errors"

var (
	// ErrMissingPath is returned when no VCF path is supplied.
	ErrMissingPath = errors.New("vcf: file path is required")

	// ErrNotFound is returned when the VCF file does not exist.
	ErrNotFound = errors.New("vcf: file not found")
)

// UnknownGene groups variants that carry no recognizable gene symbol.
const UnknownGene = "UNKNOWN"

// annFields are the snpEff ANN sub-fields, in wire order.
var annFields = []string{
	"allele",
	"effect",
	"impact",
	"gene",
	"gene_id",
	"feature_type",
	"feature_id",
	"transcript_biotype",
	"rank",
	"hgvs_c",
	"hgvs_p",
	"cdna_pos",
	"cdna_len",
	"cds_pos",
	"cds_len",
	"aa_pos",
	"aa_len",
	"distance",
	"errors",
}

// Annotation is one snpEff functional annotation attached to a variant.
type Annotation struct {
	Gene       string `json:"gene,omitempty"`
	Effect     string `json:"effect,omitempty"`
	Impact     string `json:"impact,omitempty"`
	HGVSc      string `json:"hgvs_c,omitempty"`
	HGVSp      string `json:"hgvs_p,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// Variant is a single VCF record.
type Variant struct {
	Chrom                string       `json:"chrom"`
	Position             int          `json:"position"`
	Ref                  string       `json:"ref"`
	Alt                  string       `json:"alt"`
	ID                   string       `json:"id,omitempty"`
	Genotype             string       `json:"genotype,omitempty"`
	Annotations          []Annotation `json:"annotations"`
	Effects              []string     `json:"effects"`
	Impact               string       `json:"impact,omitempty"`
	ClinicalSignificance string       `json:"clinical_significance,omitempty"`
}

// GeneVariants groups the variants attributed to one gene symbol.
type GeneVariants struct {
	Gene         string    `json:"gene"`
	VariantCount int       `json:"variant_count"`
	Variants     []Variant `json:"variants"`
}

// Result is the full outcome of parsing one VCF file.
type Result struct {
	Path          string         `json:"vcf_path"`
	TotalVariants int            `json:"total_variants"`
	Genes         []GeneVariants `json:"genes"`
	Summary       string         `json:"summary"`
}

// Gene returns the variants for a gene symbol, or nil when absent.
func (r *Result) Gene(symbol string) *GeneVariants {
	for i := range r.Genes {
		if r.Genes[i].Gene == symbol {
			return &r.Genes[i]
		}
	}
	return nil
}

// GeneSymbols lists the gene symbols in the result, in sorted order.
func (r *Result) GeneSymbols() []string {
	symbols := make([]string, len(r.Genes))
	for i, g := range r.Genes {
		symbols[i] = g.Gene
	}
	return symbols
}
