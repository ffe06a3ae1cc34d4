package coach

import (
	"fmt"
	"strings"
)

// FormatSubjectReport renders one subject report in the fixed text layout.
func FormatSubjectReport(report *SubjectReport) string {
	label := SubjectLabel(report.Subject)

	var geneDescriptions []string
	for _, entry := range report.Entries {
		if len(entry.Mutations) > 0 {
			geneDescriptions = append(geneDescriptions,
				fmt.Sprintf("%s (%s)", entry.Gene, strings.Join(entry.Mutations, "; ")))
		} else if entry.Gene != "" {
			geneDescriptions = append(geneDescriptions, entry.Gene)
		}
	}

	var geneLine string
	switch {
	case len(geneDescriptions) > 0:
		geneLine = strings.Join(geneDescriptions, ", ")
	case len(report.IrrelevantGenes) > 0:
		geneLine = "Genes identified without dedicated rules: " + strings.Join(report.IrrelevantGenes, ", ")
	default:
		geneLine = "No relevant genes were identified."
	}

	argument := strings.TrimSpace(report.SummaryArgument)
	if argument == "" {
		if len(report.IrrelevantGenes) > 0 {
			argument = "The identified genes do not yet have dedicated rules in the knowledge base. " +
				"Customize the guidance for specific recommendations."
		} else {
			argument = "There are no arguments because no relevant genes were found for this subject."
		}
	}

	recommendations := report.Recommendations
	if len(recommendations) == 0 && len(report.IrrelevantGenes) > 0 {
		recommendations = []string{
			"Add rules for the analyzed genes without dedicated recommendations: " +
				strings.Join(report.IrrelevantGenes, ", "),
		}
	}

	lines := []string{
		"Subject: " + label,
		"- Relevant genes/mutations: " + geneLine,
		"- Reasoning: " + argument,
		"- Recommendations:",
		formatRecommendations(recommendations),
	}
	return strings.Join(lines, "\n")
}

// FormatReport renders all subject reports separated by blank lines.
func FormatReport(report *Report) string {
	sections := make([]string, 0, len(report.Subjects))
	for i := range report.Subjects {
		sections = append(sections, FormatSubjectReport(&report.Subjects[i]))
	}
	return strings.Join(sections, "\n\n")
}

func formatRecommendations(recommendations []string) string {
	var items []string
	for _, rec := range recommendations {
		rec = strings.TrimSpace(rec)
		if rec != "" {
			items = append(items, "    - "+rec)
		}
	}
	if len(items) == 0 {
		return "    - No recommendations were generated for this subject."
	}
	return strings.Join(items, "\n")
}
