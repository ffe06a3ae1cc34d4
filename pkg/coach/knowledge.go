package coach

import "strings"

// SubjectKnowledge is the static guidance for one gene under one subject.
// Argument templates accept {gene}, {mutations} and {impact} placeholders.
type SubjectKnowledge struct {
	Argument        string
	RiskNotes       string
	BenefitNotes    string
	Recommendations []string
}

// formatArgument expands the placeholders in an argument template.
func (k SubjectKnowledge) formatArgument(gene, mutations, impact string) string {
	r := strings.NewReplacer(
		"{gene}", gene,
		"{mutations}", mutations,
		"{impact}", impact,
	)
	argument := r.Replace(k.Argument)
	if k.RiskNotes != "" {
		argument += " " + k.RiskNotes
	}
	if k.BenefitNotes != "" {
		argument += " " + k.BenefitNotes
	}
	return argument
}

// subjectKnowledge holds the per-subject gene guidance.
var subjectKnowledge = map[string]map[string]SubjectKnowledge{
	"nutrition": {
		"MTHFR": {
			Argument: "{gene} with variants such as {mutations} indicates reduced activity of the " +
				"methylenetetrahydrofolate reductase enzyme; reported impact: {impact}. This can " +
				"slow the conversion of folate into its methylated form, raising homocysteine and " +
				"the need for methylated B vitamins.",
			RiskNotes: "Risks include methylation deficits, fatigue and increased sensitivity to " +
				"toxins if folate/B12 intake is not optimized.",
			BenefitNotes: "Appropriate nutritional interventions can support neurotransmitter " +
				"synthesis and cardiovascular protection.",
			Recommendations: []string{
				"Supplement with 400-800 mcg 5-MTHF or methylated folic acid under medical supervision.",
				"Include foods rich in natural folate: leafy greens, asparagus, avocado.",
				"Pair with methylated vitamins B2, B6 and B12 to support the methylation cycle.",
				"Monitor homocysteine levels periodically and adjust interventions based on results.",
			},
		},
		"FTO": {
			Argument: "{gene} with variants {mutations} is associated with appetite regulation and " +
				"lipid storage. The observed impact ({impact}) suggests a higher risk of weight " +
				"gain if caloric intake and macronutrient quality are not controlled.",
			RiskNotes: "Insulin resistance and difficulty maintaining weight can appear without a " +
				"diet rich in fiber and protein.",
			BenefitNotes: "Structuring meals and regulating carbohydrate intake helps control appetite.",
			Recommendations: []string{
				"Adopt a moderate glycemic index meal plan, rich in lean protein and fiber.",
				"Structure meals around a protein-rich breakfast to reduce cravings later in the day.",
				"Track total calorie intake and keep a food journal for awareness.",
				"Prioritize unsaturated fats (olive oil, nuts) and limit refined sugars.",
			},
		},
		"VDR": {
			Argument: "{gene} affected by {mutations} influences the response to vitamin D. " +
				"The {impact} impact can reduce absorption and signaling efficiency, requiring " +
				"closer attention to vitamin D and calcium intake.",
			RiskNotes: "There may be an increased risk of low bone mineral density and suboptimal " +
				"immune response without optimization.",
			BenefitNotes: "Correcting vitamin D status supports calcium metabolism and muscle function.",
			Recommendations: []string{
				"Check serum 25(OH)D and supplement to maintain values between 40-60 ng/mL.",
				"Include vitamin D sources (fatty fish, eggs) and calcium (leafy greens, sesame seeds).",
				"Ensure moderate sun exposure and impact exercise for bone health.",
			},
		},
	},
	"sport": {
		"ACTN3": {
			Argument: "The {mutations} variant in {gene} is associated with slow muscle fibers and " +
				"endurance adaptations; the mentioned impact ({impact}) suggests less " +
				"alpha-actinin-3 activity for explosive power.",
			RiskNotes:    "Strength-only sports can lead to overload and slow recovery.",
			BenefitNotes: "Endurance training and volume periodization increase oxidative efficiency.",
			Recommendations: []string{
				"Prioritize endurance activities: easy running, cycling, steady-pace swimming.",
				"Introduce strength sessions with moderate weights for stability, avoiding excessive explosive volume.",
				"Use recovery strategies (stretching, massage, sleep over 7h) to prevent injuries.",
			},
		},
		"IL6": {
			Argument: "{gene} with variants {mutations} influences the post-exercise inflammatory " +
				"response; the {impact} impact can prolong recovery time and antioxidant needs.",
			RiskNotes:    "Persistent inflammation can affect muscle adaptations and the immune system.",
			BenefitNotes: "Managing inflammation supports progress and reduces overtraining risk.",
			Recommendations: []string{
				"Schedule active recovery days and watch for inflammation signs (persistent soreness, CRP).",
				"Include anti-inflammatory foods (fatty fish, turmeric, ginger) and omega-3 (1-2 g EPA/DHA).",
				"Stay hydrated and use heart rate monitoring to adjust intensity.",
			},
		},
		"VDR": {
			Argument: "{gene} with {mutations} can reduce vitamin D receptor sensitivity; " +
				"the {impact} impact affects muscle strength and efficient contraction, " +
				"especially in sports requiring fine coordination.",
			RiskNotes:    "Vitamin D deficiencies can increase the risk of fractures and muscle weakness.",
			BenefitNotes: "Optimizing vitamin D improves neuromuscular function and recovery.",
			Recommendations: []string{
				"Add light plyometric exercises and balance training to stimulate neuromuscular recruitment.",
				"Ensure sufficient vitamin D and calcium intake to support muscle contractions.",
				"Track grip strength or vertical jump to evaluate adaptations.",
			},
		},
	},
	"therapies": {
		"COMT": {
			Argument: "{gene} with variants {mutations} suggests altered catechol-O-methyltransferase " +
				"activity; the {impact} impact can slow dopamine and adrenaline breakdown, " +
				"influencing stress tolerance and therapy response.",
			RiskNotes:    "Elevated catecholamine levels can increase anxiety or pain sensitivity.",
			BenefitNotes: "Stress regulation interventions can balance neurotransmitters and the autonomic system.",
			Recommendations: []string{
				"Use stress management therapies (coherent breathing, mindfulness) to stabilize catecholamine levels.",
				"Consider magnesium glycinate supplementation (200-400 mg) for neuromuscular relaxation.",
				"Support methylation with active B vitamins (B6, B12, folate) and cofactors (SAMe) under medical supervision.",
			},
		},
		"MTHFR": {
			Argument: "{gene} with {mutations} reveals reduced methylation capacity; the {impact} " +
				"impact can influence the response to hormonal therapies, detoxification and " +
				"cellular regeneration.",
			RiskNotes: "Plain folic acid supplements may be less effective; monitor reactions to " +
				"intensive therapies.",
			BenefitNotes: "Personalizing therapies with methylation support improves tolerance and clinical outcomes.",
			Recommendations: []string{
				"Before demanding therapies (chelation, detox), support methylation with 5-MTHF and methylated B12.",
				"Add NAC and liposomal glutathione to support phase II detoxification when medically indicated.",
				"Consult a specialist to adjust bioidentical hormone doses based on methylation status.",
			},
		},
		"SOD2": {
			Argument: "{gene} with {mutations} affects the mitochondrial superoxide dismutase " +
				"enzyme; the {impact} impact can diminish antioxidant capacity, requiring " +
				"support during oxidative or radiant therapies.",
			RiskNotes:    "Increased oxidative stress can worsen fatigue and inflammation during intensive therapies.",
			BenefitNotes: "Targeted antioxidant support increases mitochondrial resilience and quality of life.",
			Recommendations: []string{
				"Add coenzyme Q10, N-acetylcysteine and vitamin C supplementation to the therapeutic protocol.",
				"Use red light therapy or infrared sauna with monitoring to stimulate mitochondria.",
				"Evaluate oxidative stress markers (8-OHdG, F2-isoprostanes) to adjust interventions.",
			},
		},
	},
}
