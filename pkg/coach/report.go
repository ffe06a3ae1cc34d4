package coach

import (
	"fmt"
	"sort"
	"strings"

	"github.com/helixworks/go-agents/pkg/vcf"
)

// Entry is the guidance produced for one relevant gene.
type Entry struct {
	Gene            string   `json:"gene"`
	Mutations       []string `json:"mutations"`
	Argument        string   `json:"argument"`
	Recommendations []string `json:"recommendations"`
}

// SubjectReport is the structured guidance for one subject.
type SubjectReport struct {
	Subject         string   `json:"subject"`
	Entries         []Entry  `json:"entries"`
	SummaryArgument string   `json:"summary_argument"`
	Recommendations []string `json:"recommendations"`
	IrrelevantGenes []string `json:"irrelevant_genes"`
}

// Report bundles the subject reports generated from one VCF analysis.
type Report struct {
	Subjects          []SubjectReport `json:"subjects"`
	GeneSummary       *vcf.Result     `json:"gene_summary"`
	RequestedSubjects []string        `json:"requested_subjects"`
}

// BuildSubjectReport generates guidance for one subject from parsed genes.
func BuildSubjectReport(subject string, genes *vcf.Result) (*SubjectReport, error) {
	if subject == "" {
		return nil, fmt.Errorf("coach: subject is required")
	}
	key := strings.ToLower(strings.TrimSpace(subject))
	knowledge, ok := subjectKnowledge[key]
	if !ok {
		return nil, ErrUnknownSubject
	}

	report := &SubjectReport{Subject: key}
	if genes == nil {
		return report, nil
	}

	seenRecs := make(map[string]bool)
	for _, group := range genes.Genes {
		gene := strings.ToUpper(group.Gene)
		guidance, relevant := knowledge[gene]
		if !relevant {
			report.IrrelevantGenes = append(report.IrrelevantGenes, gene)
			continue
		}

		var summaries []string
		for _, variant := range group.Variants {
			if s := summarizeVariant(variant); s != "" {
				summaries = append(summaries, s)
			}
		}
		mutationText := strings.Join(summaries, "; ")
		if mutationText == "" {
			mutationText = "the reported variant"
		}

		argument := guidance.formatArgument(gene, mutationText, impactText(group.Variants))
		report.Entries = append(report.Entries, Entry{
			Gene:            gene,
			Mutations:       summaries,
			Argument:        argument,
			Recommendations: guidance.Recommendations,
		})
		for _, rec := range guidance.Recommendations {
			if !seenRecs[rec] {
				seenRecs[rec] = true
				report.Recommendations = append(report.Recommendations, rec)
			}
		}
	}

	var arguments []string
	for _, entry := range report.Entries {
		arguments = append(arguments, entry.Argument)
	}
	report.SummaryArgument = strings.Join(arguments, " ")
	sort.Strings(report.IrrelevantGenes)
	return report, nil
}

// BuildReport parses nothing itself; it combines an already parsed VCF
// result with the requested subjects.
func BuildReport(genes *vcf.Result, subjects []string) (*Report, error) {
	selected := NormalizeSubjects(subjects)
	report := &Report{
		GeneSummary:       genes,
		RequestedSubjects: selected,
	}
	for _, subject := range selected {
		subjectReport, err := BuildSubjectReport(subject, genes)
		if err != nil {
			return nil, err
		}
		report.Subjects = append(report.Subjects, *subjectReport)
	}
	return report, nil
}

// summarizeVariant renders one variant as a compact description line.
func summarizeVariant(v vcf.Variant) string {
	var parts []string
	if v.ID != "" {
		parts = append(parts, v.ID)
	}
	if v.Chrom != "" && v.Position != 0 {
		parts = append(parts, fmt.Sprintf("%s:%d", v.Chrom, v.Position))
	}
	if v.Ref != "" && v.Alt != "" {
		parts = append(parts, fmt.Sprintf("%s>%s", v.Ref, v.Alt))
	}
	if v.Genotype != "" {
		parts = append(parts, "genotype "+v.Genotype)
	}
	if v.Impact != "" {
		parts = append(parts, "impact "+strings.ToLower(v.Impact))
	}
	if len(v.Effects) > 0 {
		parts = append(parts, strings.Join(v.Effects, "/"))
	}

	hgvsSet := make(map[string]bool)
	for _, ann := range v.Annotations {
		entry := ann.HGVSp
		if entry == "" {
			entry = ann.HGVSc
		}
		if entry != "" {
			hgvsSet[entry] = true
		}
	}
	if len(hgvsSet) > 0 {
		entries := make([]string, 0, len(hgvsSet))
		for entry := range hgvsSet {
			entries = append(entries, entry)
		}
		sort.Strings(entries)
		parts = append(parts, strings.Join(entries, "; "))
	}

	return strings.Join(parts, ", ")
}

// impactText joins the distinct impacts across variants, preserving
// first-seen order. Annotation impacts take precedence.
func impactText(variants []vcf.Variant) string {
	var impacts []string
	seen := make(map[string]bool)

	for _, variant := range variants {
		for _, ann := range variant.Annotations {
			if ann.Impact != "" && !seen[ann.Impact] {
				seen[ann.Impact] = true
				impacts = append(impacts, ann.Impact)
			}
		}
	}
	if len(impacts) == 0 {
		for _, variant := range variants {
			if variant.Impact != "" && !seen[variant.Impact] {
				seen[variant.Impact] = true
				impacts = append(impacts, variant.Impact)
			}
		}
	}
	if len(impacts) == 0 {
		return "unspecified"
	}
	return strings.Join(impacts, ", ")
}
