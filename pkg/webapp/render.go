package webapp

import (
	"fmt"
	"html"
	"strings"

	"github.com/helixworks/go-agents/pkg/coach"
	"github.com/helixworks/go-agents/pkg/vcf"
)

const pageTemplate = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <title>Genetic Health Coach Demo</title>
    <style>
      body { font-family: Arial, sans-serif; margin: 2rem; line-height: 1.6; }
      header { margin-bottom: 2rem; }
      form label { display: block; margin-top: 1rem; }
      article { border: 1px solid #ddd; padding: 1rem 1.5rem; margin-bottom: 1.5rem; border-radius: 8px; background-color: #fafafa; }
      h1 { font-size: 1.8rem; }
      h2 { color: #0b5394; }
      button { margin-top: 1.5rem; padding: 0.6rem 1.4rem; font-size: 1rem; }
    </style>
  </head>
  <body>
    <header>
      <h1>Genetic Health Coach</h1>
      <p>Upload an annotated VCF file, pick the subjects you care about and press Generate report.</p>
    </header>
    <section>
      <form action="/analyze" method="post" enctype="multipart/form-data">
        <label for="file">Annotated VCF file</label>
        <input type="file" id="file" name="file" accept=".vcf,text/vcf" required>
        <fieldset>
          <legend>Subjects</legend>
          <label><input type="checkbox" name="subjects" value="sport" checked> Sport</label>
          <label><input type="checkbox" name="subjects" value="nutrition" checked> Nutrition</label>
          <label><input type="checkbox" name="subjects" value="therapies" checked> Therapies</label>
        </fieldset>
        <button type="submit">Generate report</button>
      </form>
    </section>
    <section>
      %s
    </section>
  </body>
</html>
`

// renderFullPage wraps content in the demo page layout.
func renderFullPage(body string) string {
	return fmt.Sprintf(pageTemplate, body)
}

// renderSubjectHTML renders one subject report as an HTML fragment.
func renderSubjectHTML(report *coach.SubjectReport) string {
	title := html.EscapeString(coach.SubjectLabel(report.Subject))

	if len(report.Entries) == 0 {
		if len(report.IrrelevantGenes) > 0 {
			missing := escapeJoin(report.IrrelevantGenes, ", ")
			return "<article><h2>Subject: " + title + "</h2>" +
				"<p><strong>Analyzed genes:</strong> " + missing + "</p>" +
				"<p><em>The genes above do not yet have dedicated rules. " +
				"Customize the knowledge base for specific recommendations.</em></p>" +
				"</article>"
		}
		return "<article><h2>Subject: " + title + "</h2>" +
			"<p><em>No relevant genes were found for this subject.</em></p></article>"
	}

	var geneDetails []string
	var arguments []string
	var recommendations []string
	seen := make(map[string]bool)
	for _, entry := range report.Entries {
		gene := html.EscapeString(entry.Gene)
		if len(entry.Mutations) > 0 {
			geneDetails = append(geneDetails, gene+" ("+escapeJoin(entry.Mutations, "; ")+")")
		} else {
			geneDetails = append(geneDetails, gene)
		}
		if entry.Argument != "" {
			arguments = append(arguments, entry.Argument)
		}
		for _, rec := range entry.Recommendations {
			if !seen[rec] {
				seen[rec] = true
				recommendations = append(recommendations, rec)
			}
		}
	}

	argumentBlock := strings.Join(arguments, " ")
	if argumentBlock == "" {
		argumentBlock = "There are no further arguments for this subject."
	}

	var items strings.Builder
	for _, rec := range recommendations {
		items.WriteString("<li>" + html.EscapeString(rec) + "</li>")
	}
	if items.Len() == 0 {
		items.WriteString("<li>No specific recommendations were generated.</li>")
	}

	extraNote := ""
	if len(report.IrrelevantGenes) > 0 {
		extraNote = "<p><em>Additional genes identified without dedicated rules: " +
			escapeJoin(report.IrrelevantGenes, ", ") + "</em></p>"
	}

	return "<article><h2>Subject: " + title + "</h2>" +
		"<p><strong>Relevant genes/mutations:</strong> " + strings.Join(geneDetails, ", ") + "</p>" +
		"<p><strong>Reasoning:</strong> " + html.EscapeString(argumentBlock) + "</p>" +
		"<h3>Recommendations</h3><ul>" + items.String() + "</ul>" + extraNote + "</article>"
}

// renderGeneSummary renders the detected genes as an HTML fragment.
func renderGeneSummary(genes *vcf.Result) string {
	if genes == nil || len(genes.Genes) == 0 {
		return "<section><h2>Identified genes</h2><p><em>No variants were detected in the VCF file.</em></p></section>"
	}

	var items strings.Builder
	for _, group := range genes.Genes {
		var descriptions []string
		for _, variant := range group.Variants {
			var pieces []string
			if variant.Chrom != "" && variant.Position != 0 {
				pieces = append(pieces, fmt.Sprintf("%s:%d", variant.Chrom, variant.Position))
			} else {
				pieces = append(pieces, "Unspecified locus")
			}
			if variant.Ref != "" && variant.Alt != "" {
				pieces = append(pieces, variant.Ref+">"+variant.Alt)
			}
			if len(variant.Effects) > 0 {
				pieces = append(pieces, strings.Join(variant.Effects, "/"))
			}
			descriptions = append(descriptions, strings.Join(pieces, " - "))
		}

		items.WriteString("<li><strong>" + html.EscapeString(group.Gene) + "</strong>")
		items.WriteString(fmt.Sprintf(" - %d variant(s)", group.VariantCount))
		if len(descriptions) > 0 {
			items.WriteString("<br>" + escapeJoin(descriptions, "<br>"))
		}
		items.WriteString("</li>")
	}

	return "<section><h2>Identified genes</h2><ul>" + items.String() + "</ul></section>"
}

func escapeJoin(values []string, sep string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = html.EscapeString(v)
	}
	return strings.Join(escaped, sep)
}
