package extractors

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Fact names reported by Findings.Facts and referenced by gap rules.
const (
	FactImagingSevere        = "imaging_severe"
	FactImagingDocumented    = "imaging_documented"
	FactConservative3Months  = "conservative_3_months"
	FactConservative6Weeks   = "conservative_6_weeks"
	FactPhysicalTherapy6Wks  = "physical_therapy_6_weeks"
	FactMultipleModalities   = "multiple_modalities"
	FactBMIDocumented        = "bmi_documented"
	FactBMIUnder40           = "bmi_under_40"
	FactFunctionalScore      = "functional_score"
	FactMedicalClearance     = "medical_clearance"
	FactPhysicalExam         = "physical_exam"
	FactRedFlags             = "red_flags"
	FactPriorImaging         = "prior_imaging"
	FactSymptomDuration      = "symptom_duration"
	FactStressTest           = "stress_test"
	FactEKG                  = "ekg"
	FactCardiologyConsult    = "cardiology_consult"
	FactAnginalSymptoms      = "anginal_symptoms"
	FactMedicationTrial      = "medication_trial"
	FactStepTherapy          = "step_therapy"
	FactTBScreening          = "tb_screening"
	FactHepatitisScreening   = "hepatitis_screening"
	FactDiseaseActivity      = "disease_activity"
	FactSpecialistPrescriber = "specialist_prescriber"
)

// Findings are the clinically relevant facts stated in free-text notes.
// Zero values mean "not documented".
type Findings struct {
	KLGrade           int
	BMI               float64
	ConservativeWeeks float64
	TherapyWeeks      float64
	SymptomWeeks      float64
	Treatments        []string
	FunctionalScores  []string
	RedFlags          []string
	SevereImaging     bool
	Imaging           bool
	PriorImaging      bool
	MedicalClearance  bool
	PhysicalExam      bool
	StressTest        bool
	EKG               bool
	Cardiology        bool
	AnginalSymptoms   bool
	MedicationTrial   bool
	StepTherapy       bool
	TBScreening       bool
	HepatitisScreen   bool
	DiseaseActivity   bool
	Specialist        bool
}

// Facts flattens the findings into named booleans.
func (f Findings) Facts() map[string]bool {
	return map[string]bool{
		FactImagingSevere:        f.SevereImaging || f.KLGrade >= 3,
		FactImagingDocumented:    f.Imaging || f.KLGrade > 0,
		FactConservative3Months:  f.ConservativeWeeks >= 12,
		FactConservative6Weeks:   f.ConservativeWeeks >= 6,
		FactPhysicalTherapy6Wks:  f.TherapyWeeks >= 6,
		FactMultipleModalities:   len(f.Treatments) >= 2,
		FactBMIDocumented:        f.BMI > 0,
		FactBMIUnder40:           f.BMI > 0 && f.BMI < 40,
		FactFunctionalScore:      len(f.FunctionalScores) > 0,
		FactMedicalClearance:     f.MedicalClearance,
		FactPhysicalExam:         f.PhysicalExam,
		FactRedFlags:             len(f.RedFlags) > 0,
		FactPriorImaging:         f.PriorImaging,
		FactSymptomDuration:      f.SymptomWeeks > 0,
		FactStressTest:           f.StressTest,
		FactEKG:                  f.EKG,
		FactCardiologyConsult:    f.Cardiology,
		FactAnginalSymptoms:      f.AnginalSymptoms,
		FactMedicationTrial:      f.MedicationTrial,
		FactStepTherapy:          f.StepTherapy,
		FactTBScreening:          f.TBScreening,
		FactHepatitisScreening:   f.HepatitisScreen,
		FactDiseaseActivity:      f.DiseaseActivity,
		FactSpecialistPrescriber: f.Specialist,
	}
}

type term struct {
	name string
	re   *regexp.Regexp
}

func ci(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

var (
	sentenceSplit = regexp.MustCompile(`\n|;|\.(?:\s|$)`)
	segmentSplit  = regexp.MustCompile(`(?i)[,():]|\b(?:but|with|despite|however)\b`)
	negation      = ci(`\b(?:no|not|without|never|denies|denied|declined|absent|negative for)\b`)
	duration      = ci(`(\d+(?:\.\d+)?)\s*-?\s*(days?|weeks?|wks?|months?|mos?|years?|yrs?)\b`)
	klGrade       = ci(`\bgrade\s*(iv|iii|ii|i|[1-4])\b`)
	bmiValue      = ci(`\b(?:bmi|body mass index)\b[^0-9\n]{0,15}(\d{2}(?:\.\d+)?)`)

	treatmentTerms = []term{
		{"physical therapy", ci(`physical therapy|physiotherapy|\bpt\b`)},
		{"NSAIDs/analgesics", ci(`nsaids?|ibuprofen|naproxen|meloxicam|celecoxib|diclofenac|analgesic`)},
		{"corticosteroid injection", ci(`corticosteroid|steroid injection|cortisone|kenalog`)},
		{"hyaluronic acid injection", ci(`hyaluronic|synvisc|viscosupplement`)},
		{"activity modification", ci(`activity modification|bracing|\bbrace\b`)},
		{"muscle relaxant", ci(`muscle relaxant|cyclobenzaprine|methocarbamol`)},
	}
	conservativeTerm = ci(`conservative`)
	therapyTerm      = treatmentTerms[0].re
	symptomTerm      = ci(`pain|symptom|headache|stiffness|angina|discomfort|dyspnea|swelling`)

	functionalTerms = []term{
		{"KOOS", ci(`\bkoos\b`)},
		{"WOMAC", ci(`\bwomac\b`)},
		{"Oxford Knee Score", ci(`oxford knee`)},
		{"VAS", ci(`\bvas\b`)},
		{"Oswestry", ci(`oswestry|\bodi\b`)},
		{"functional assessment", ci(`functional (?:score|assessment)`)},
	}

	redFlagTerms = []term{
		{"cauda equina", ci(`cauda equina|saddle an(?:a)?esthesia`)},
		{"bowel/bladder dysfunction", ci(`bowel|bladder dysfunction`)},
		{"progressive neurological deficit", ci(`(?:progressive|focal) neurolog\w* deficit`)},
		{"thunderclap headache", ci(`thunderclap|worst headache`)},
		{"sudden onset", ci(`sudden onset`)},
		{"new-onset seizure", ci(`new[- ]onset seizure`)},
		{"meningeal signs", ci(`neck stiffness|nuchal rigidity`)},
		{"papilledema", ci(`papill?edema`)},
		{"suspected malignancy", ci(`malignan|history of cancer`)},
		{"unexplained weight loss", ci(`unexplained weight loss`)},
	}

	severeImagingTerm   = ci(`bone[- ]on[- ]bone|end[- ]stage|complete loss of (?:\w+ )?joint space`)
	imagingTerm         = ci(`x-?rays?|radiograph|\bmri\b|\bct\b|imaging|ultrasound`)
	priorImagingTerm    = ci(`prior imaging|previous imaging|x-?rays?|radiographs?|\bct\b|ultrasound`)
	clearanceTerm       = ci(`(?:medical|cardiac|surgical|pre-?operative) clearance|cleared for surgery`)
	physicalExamTerm    = ci(`physical exam|examination|on exam|straight leg raise|range of motion|tenderness|reflexes`)
	stressTestTerm      = ci(`stress (?:test|echo)|treadmill|exercise tolerance`)
	ekgTerm             = ci(`\bekg\b|\becg\b|electrocardiogram`)
	cardiologyTerm      = ci(`cardiolog`)
	anginalTerm         = ci(`angina|chest pain|dyspnea on exertion`)
	cardiacMedsTerm     = ci(`beta[- ]blocker|nitrate|nitroglycerin|aspirin|statin|metoprolol|amlodipine`)
	stepTherapyTerm     = ci(`methotrexate|\bdmards?\b|conventional (?:systemic )?therap|sulfasalazine|azathioprine`)
	tbTerm              = ci(`\btb\b|tuberculosis|quantiferon|\bppd\b`)
	hepatitisTerm       = ci(`hepatitis|\bhbv\b|hbsag`)
	diseaseActivityTerm = ci(`das-?28|\bcdai\b|\bsdai\b|\bpasi\b|harvey[- ]bradshaw|disease activity`)
	specialistTerm      = ci(`rheumatolog|gastroenterolog|dermatolog`)
)

// NotesExtractor pulls Findings out of clinical notes with keyword patterns.
// A term preceded by a negation cue in the same clause fragment is ignored.
type NotesExtractor struct{}

// NewNotesExtractor constructs a notes extractor.
func NewNotesExtractor() *NotesExtractor {
	return &NotesExtractor{}
}

// Extract scans notes and returns the documented findings.
func (e *NotesExtractor) Extract(notes string) Findings {
	var f Findings
	sentences := splitSentences(notes)

	treatments := make(map[string]struct{})
	for _, s := range sentences {
		for _, t := range treatmentTerms {
			if mentions(s, t.re) {
				treatments[t.name] = struct{}{}
			}
		}

		weeks := maxWeeks(s)
		if weeks > 0 {
			if mentions(s, conservativeTerm) || mentionsAny(s, treatmentTerms) {
				f.ConservativeWeeks = math.Max(f.ConservativeWeeks, weeks)
			}
			if mentions(s, therapyTerm) {
				f.TherapyWeeks = math.Max(f.TherapyWeeks, weeks)
			}
			if mentions(s, symptomTerm) || strings.Contains(strings.ToLower(s), "symptomatic") {
				f.SymptomWeeks = math.Max(f.SymptomWeeks, weeks)
			}
		}

		if g := gradeIn(s); g > f.KLGrade {
			f.KLGrade = g
		}
		if f.BMI == 0 {
			f.BMI = bmiIn(s)
		}
	}

	f.Treatments = sortedKeys(treatments)
	f.FunctionalScores = matchedNames(sentences, functionalTerms)
	f.RedFlags = matchedNames(sentences, redFlagTerms)

	f.SevereImaging = anySentence(sentences, severeImagingTerm)
	f.Imaging = anySentence(sentences, imagingTerm)
	f.PriorImaging = anySentence(sentences, priorImagingTerm)
	f.MedicalClearance = anySentence(sentences, clearanceTerm)
	f.PhysicalExam = anySentence(sentences, physicalExamTerm)
	f.StressTest = anySentence(sentences, stressTestTerm)
	f.EKG = anySentence(sentences, ekgTerm)
	f.Cardiology = anySentence(sentences, cardiologyTerm)
	f.AnginalSymptoms = anySentence(sentences, anginalTerm)
	f.MedicationTrial = anySentence(sentences, cardiacMedsTerm)
	f.StepTherapy = anySentence(sentences, stepTherapyTerm)
	f.TBScreening = anySentence(sentences, tbTerm)
	f.HepatitisScreen = anySentence(sentences, hepatitisTerm)
	f.DiseaseActivity = anySentence(sentences, diseaseActivityTerm)
	f.Specialist = anySentence(sentences, specialistTerm)
	return f
}

func splitSentences(notes string) []string {
	parts := sentenceSplit.Split(notes, -1)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mentions reports whether re matches sentence outside a negated fragment.
func mentions(sentence string, re *regexp.Regexp) bool {
	for _, seg := range segmentSplit.Split(sentence, -1) {
		for _, loc := range re.FindAllStringIndex(seg, -1) {
			if !negated(seg, loc[0]) {
				return true
			}
		}
	}
	return false
}

func negated(segment string, at int) bool {
	cue := negation.FindStringIndex(segment)
	return cue != nil && cue[0] < at
}

func mentionsAny(sentence string, terms []term) bool {
	for _, t := range terms {
		if mentions(sentence, t.re) {
			return true
		}
	}
	return false
}

func anySentence(sentences []string, re *regexp.Regexp) bool {
	for _, s := range sentences {
		if mentions(s, re) {
			return true
		}
	}
	return false
}

func matchedNames(sentences []string, terms []term) []string {
	var names []string
	for _, t := range terms {
		if anySentence(sentences, t.re) {
			names = append(names, t.name)
		}
	}
	return names
}

func maxWeeks(sentence string) float64 {
	best := 0.0
	for _, loc := range duration.FindAllStringSubmatchIndex(sentence, -1) {
		rest := strings.ToLower(sentence[loc[1]:])
		if strings.HasPrefix(rest, "-old") || strings.HasPrefix(rest, " old") {
			continue // patient age
		}
		n, err := strconv.ParseFloat(sentence[loc[2]:loc[3]], 64)
		if err != nil {
			continue
		}
		unit := strings.ToLower(sentence[loc[4]:loc[5]])
		var weeks float64
		switch {
		case strings.HasPrefix(unit, "d"):
			weeks = n / 7
		case strings.HasPrefix(unit, "w"):
			weeks = n
		case strings.HasPrefix(unit, "m"):
			weeks = n * 52 / 12
		case strings.HasPrefix(unit, "y"):
			weeks = n * 52
		}
		best = math.Max(best, weeks)
	}
	return best
}

func gradeIn(sentence string) int {
	best := 0
	for _, m := range klGrade.FindAllStringSubmatch(sentence, -1) {
		var g int
		switch strings.ToLower(m[1]) {
		case "i", "1":
			g = 1
		case "ii", "2":
			g = 2
		case "iii", "3":
			g = 3
		case "iv", "4":
			g = 4
		}
		if g > best {
			best = g
		}
	}
	return best
}

func bmiIn(sentence string) float64 {
	m := bmiValue.FindStringSubmatch(sentence)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
