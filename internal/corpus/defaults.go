package corpus

import "github.com/clearpath-health/clearpath/internal/models"

func defaultDocuments() []models.PolicyDocument {
	return []models.PolicyDocument{
		{
			ID:       "UHC-KNEE-001",
			Payer:    models.PayerUHC,
			Category: "knee_replacement",
			Title:    "United Healthcare Prior Authorization Policy: Total Knee Arthroplasty",
			Text: `UNITED HEALTHCARE PRIOR AUTHORIZATION POLICY
Procedure: Total Knee Arthroplasty (CPT 27447, 27446)

MEDICAL NECESSITY CRITERIA:
Prior authorization is REQUIRED for all total and partial knee arthroplasty procedures.

REQUIRED DOCUMENTATION:
1. Radiographic evidence: Weight-bearing X-rays showing Kellgren-Lawrence Grade III or IV
   osteoarthritis with bone-on-bone changes, subchondral sclerosis, or osteophyte formation.
2. BMI Documentation: Patient BMI must be documented. BMI < 40 is preferred. Patients with
   BMI >= 40 require additional documentation of weight management attempts.
3. Conservative Treatment Failure: Documented failure of conservative management for a
   minimum of 3 months, including at least TWO of the following:
   - Physical therapy (minimum 6 weeks)
   - NSAIDs or analgesic medications
   - Corticosteroid injections
   - Hyaluronic acid injections
   - Activity modification
4. Functional Assessment: Validated outcome score such as KOOS, WOMAC, or Oxford Knee Score
   demonstrating significant functional limitation.
5. Medical Clearance: Pre-operative medical clearance from primary care physician.
6. Orthopedic Evaluation: Detailed surgical evaluation notes from board-certified orthopedic surgeon.

AUTO-APPROVAL CRITERIA:
- Kellgren-Lawrence Grade IV with documented failure of 3+ months conservative treatment
  AND functional assessment score in severe range
- Revision of previously approved arthroplasty within 10 years
- Fracture requiring arthroplasty (emergent)

TYPICAL TURNAROUND: 5-7 business days
APPEAL WINDOW: 180 days from denial date
PEER-TO-PEER REVIEW: Available upon request within 5 business days of denial

EXCLUSIONS:
- Arthroscopic debridement as alternative not yet attempted (for patients under 55)
- Lack of radiographic evidence
- BMI > 45 without documented bariatric consultation`,
		},
		{
			ID:       "UHC-MRI-001",
			Payer:    models.PayerUHC,
			Category: "MRI",
			Title:    "United Healthcare Prior Authorization Policy: MRI Studies",
			Text: `UNITED HEALTHCARE PRIOR AUTHORIZATION POLICY
Procedure: Magnetic Resonance Imaging (MRI)
CPT Codes: 70551-70553 (Brain), 72141 (C-Spine), 72148 (L-Spine), 73721 (Lower Extremity)

MEDICAL NECESSITY CRITERIA:
Prior authorization is REQUIRED for all outpatient MRI studies.

REQUIRED DOCUMENTATION:
1. Clinical indication with specific ICD-10 diagnosis code
2. Previous conservative treatment history (minimum 6 weeks for musculoskeletal)
3. Physical examination findings supporting the need for advanced imaging
4. Previous imaging results (X-ray, CT) if applicable
5. Referring physician NPI number

AUTO-APPROVAL CRITERIA (no prior auth needed):
- Post-surgical follow-up within 6 months of approved procedure
- Known malignancy: staging or restaging per NCCN guidelines
- Acute neurological deficit (new onset weakness, sensory loss, bowel/bladder dysfunction)
- Emergency/trauma setting
- Pre-surgical planning for previously approved procedure

DOCUMENTATION FOR SPECIFIC INDICATIONS:
Lumbar Spine MRI:
- Duration of symptoms (minimum 6 weeks without red flags)
- Trial of conservative treatment (PT, NSAIDs, activity modification)
- Negative or inconclusive X-rays
- Specific neurological findings on exam

Brain MRI:
- New neurological symptoms or findings
- Headache: new onset, change in pattern, or red flag features
- Seizure evaluation
- Known CNS pathology follow-up

TYPICAL TURNAROUND: 2-3 business days
APPEAL WINDOW: 180 days`,
		},
		{
			ID:       "UHC-CARDIAC-001",
			Payer:    models.PayerUHC,
			Category: "cardiac_catheterization",
			Title:    "United Healthcare Prior Authorization Policy: Cardiac Catheterization",
			Text: `UNITED HEALTHCARE PRIOR AUTHORIZATION POLICY
Procedure: Cardiac Catheterization
CPT Codes: 93458, 93459, 93460, 93461

MEDICAL NECESSITY CRITERIA:
Prior authorization is REQUIRED for elective cardiac catheterization.

REQUIRED DOCUMENTATION:
1. Positive or abnormal non-invasive cardiac testing:
   - Stress test (exercise or pharmacologic) showing ischemia
   - Cardiac CT showing significant coronary calcification or stenosis
   - Echocardiogram showing wall motion abnormalities
2. Cardiac risk factor assessment (hypertension, diabetes, smoking, family history, hyperlipidemia)
3. Recent EKG results (within 30 days)
4. Prior cardiac history documentation
5. Cardiology consultation notes from board-certified cardiologist

AUTO-APPROVAL (no prior auth):
- STEMI or NSTEMI presentation (emergent)
- Unstable angina with positive troponin
- Acute coronary syndrome
- Cardiogenic shock
- Cardiac arrest survivor

TYPICAL TURNAROUND: 1-2 business days (urgent), 3-5 business days (routine)
APPEAL WINDOW: 180 days`,
		},
		{
			ID:       "UHC-BIOLOGICS-001",
			Payer:    models.PayerUHC,
			Category: "biologics",
			Title:    "United Healthcare Prior Authorization Policy: Biologic Therapies",
			Text: `UNITED HEALTHCARE PRIOR AUTHORIZATION POLICY
Procedure: Biologic and Biosimilar Therapies
CPT/HCPCS Codes: J0135 (Adalimumab/Humira), J0717 (Certolizumab/Cimzia),
J1745 (Infliximab/Remicade), J2182 (Mepolizumab/Nucala)

MEDICAL NECESSITY CRITERIA:
Prior authorization is REQUIRED for all biologic and biosimilar therapies.

STEP THERAPY REQUIREMENTS:
Patients must have documented trial and failure of conventional therapies before
biologic approval:
- Rheumatoid Arthritis: Failed 2+ conventional DMARDs (methotrexate required as first-line)
- Crohn's Disease: Failed conventional therapy (5-ASA, corticosteroids, immunomodulators)
- Psoriatic Arthritis: Failed 1+ conventional DMARD and 1+ NSAID
- Ankylosing Spondylitis: Failed 2+ NSAIDs

REQUIRED DOCUMENTATION:
1. Confirmed diagnosis with supporting laboratory and/or imaging evidence
2. Documentation of conventional therapy trials with dates, doses, and outcomes
3. Current disease activity score (DAS28, CDAI, BASDAI, or equivalent)
4. Tuberculosis screening (PPD or QuantiFERON) within 12 months
5. Hepatitis B and C screening results
6. Current vaccination status
7. Prescribing specialist credentials

REAUTHORIZATION:
- Required every 12 months
- Must document continued clinical response
- Disease activity score comparison from baseline

TYPICAL TURNAROUND: 5-10 business days
APPEAL WINDOW: 180 days`,
		},
		{
			ID:       "AETNA-KNEE-001",
			Payer:    models.PayerAetna,
			Category: "knee_replacement",
			Title:    "Aetna Clinical Policy Bulletin: Knee Arthroplasty",
			Text: `AETNA CLINICAL POLICY BULLETIN
Number: 0650
Subject: Total and Partial Knee Arthroplasty (CPT 27447, 27446)

POLICY:
Aetna considers total knee arthroplasty medically necessary when ALL of the following
criteria are met:

1. RADIOGRAPHIC EVIDENCE:
   - Weight-bearing anteroposterior and lateral radiographs obtained within 6 months
   - Kellgren-Lawrence Grade III or IV changes
   - Significant joint space narrowing, osteophytes, or bone-on-bone contact

2. BODY MASS INDEX:
   - BMI < 40 preferred
   - BMI 40-45: requires documentation of supervised weight management program
   - BMI > 45: generally not approved without bariatric surgery consultation

3. CONSERVATIVE TREATMENT:
   - Physical therapy completion (minimum 6 weeks, documented)
   - Failed pharmacological management (NSAIDs, analgesics)
   - At least one intra-articular injection (corticosteroid or hyaluronic acid)
   - Total conservative treatment period: minimum 3 months

4. SURGICAL EVALUATION:
   - Operative plan from board-certified orthopedic surgeon
   - Documentation of functional limitations
   - Patient has been informed of risks, benefits, and alternatives

AUTO-APPROVAL: Grade IV OA with failed 6+ months conservative treatment
TURNAROUND: 5 business days
APPEAL: 365 days`,
		},
		{
			ID:       "AETNA-MRI-001",
			Payer:    models.PayerAetna,
			Category: "MRI",
			Title:    "Aetna Clinical Policy Bulletin: Advanced Imaging - MRI",
			Text: `AETNA CLINICAL POLICY BULLETIN
Subject: Magnetic Resonance Imaging (MRI) Prior Authorization

POLICY:
Prior authorization is required for outpatient MRI studies.

APPROVAL CRITERIA:
1. Clinical indication supported by ICD-10 diagnosis code
2. Conservative treatment attempted for minimum 4 weeks (musculoskeletal indications)
3. Physical examination findings documented
4. Prior imaging (X-ray or CT) performed and results available

EXPEDITED APPROVAL (no wait):
- Emergency or trauma
- Cancer staging per NCCN guidelines
- Pre-surgical planning for previously approved procedure
- Acute neurological symptoms

SPECIFIC GUIDELINES:
Lumbar/Cervical Spine MRI:
- Minimum 4 weeks of symptoms
- Failed conservative treatment (medication + PT or home exercise)
- Neurological signs on examination preferred but not required
- Red flag symptoms bypass waiting period

Brain MRI:
- New neurological symptoms
- Change in headache pattern with red flag features
- Follow-up of known intracranial pathology
- Seizure workup

TURNAROUND: 2 business days
APPEAL: 365 days from denial`,
		},
		{
			ID:       "BCBS-KNEE-001",
			Payer:    models.PayerBCBS,
			Category: "knee_replacement",
			Title:    "BCBS Medical Policy: Total Knee Replacement Surgery",
			Text: `BLUE CROSS BLUE SHIELD MEDICAL POLICY
Policy Number: SUR-2024-0234
Subject: Total Knee Arthroplasty

COVERAGE DETERMINATION:
Total knee arthroplasty is covered when medically necessary.

MEDICAL NECESSITY REQUIREMENTS:
1. Radiographic evidence of severe arthritis (Kellgren-Lawrence III-IV)
   documented on weight-bearing films within 6 months
2. Documented failure of non-surgical management for minimum 3 months including:
   - Structured physical therapy program
   - Pharmacological therapy (NSAIDs, analgesics)
   - At least one injection therapy (corticosteroid or viscosupplementation)
3. Functional limitation documentation using validated instrument
4. Medical necessity letter from board-certified orthopedic surgeon
5. Pre-operative medical clearance from primary care physician

SPECIAL CONSIDERATIONS:
- Revision arthroplasty: covered for mechanical failure or infection
- Bilateral simultaneous: requires additional justification and medical clearance
- Robotic-assisted: covered at same rate as conventional

AUTO-APPROVAL:
- Revision of previously approved arthroplasty
- Fracture requiring arthroplasty (emergent)

TURNAROUND: 3-5 business days
APPEAL: 180 days`,
		},
		{
			ID:       "BCBS-MRI-001",
			Payer:    models.PayerBCBS,
			Category: "MRI",
			Title:    "BCBS Medical Policy: Advanced Diagnostic Imaging - MRI",
			Text: `BLUE CROSS BLUE SHIELD MEDICAL POLICY
Policy Number: RAD-2024-0089
Subject: Magnetic Resonance Imaging Prior Authorization

PRIOR AUTHORIZATION REQUIRED for all outpatient MRI studies.

APPROVAL CRITERIA:
1. Order from treating physician with documented clinical rationale
2. Duration and nature of symptoms described
3. Conservative treatment history (minimum 4-6 weeks for non-urgent)
4. Relevant physical examination findings documented
5. Prior imaging results if applicable

RED FLAG EXEMPTIONS (immediate approval):
- Progressive neurological deficit
- Suspected cauda equina syndrome
- New onset seizure
- Suspected malignancy with clinical urgency
- Post-traumatic with neurological findings

CANCER SURVEILLANCE:
- Approved per NCCN guidelines without additional review
- Frequency per guideline protocol

POST-OPERATIVE:
- Approved within 6 months of surgery without additional review

TURNAROUND: 2-3 business days
APPEAL: 180 days`,
		},
	}
}

func defaultPolicies() []models.PayerPolicy {
	return []models.PayerPolicy{
		{
			Payer:    models.PayerUHC,
			Category: "MRI",
			CPTCodes: []string{
				"70553",
				"70551",
				"70552",
				"72141",
				"72148",
				"73721",
			},
			RequiresPriorAuth: true,
			RequiredDocumentation: []string{
				"Clinical indication/diagnosis",
				"Previous conservative treatment history (minimum 6 weeks)",
				"Physical examination findings",
				"Previous imaging results if applicable",
				"Referring physician NPI",
			},
			AutoApproveCriteria: []string{
				"Post-surgical follow-up within 6 months",
				"Known malignancy staging/restaging",
				"Acute neurological deficit",
			},
			TypicalTurnaround: "2-3 business days",
			AppealWindow:      "180 days",
		},
		{
			Payer:    models.PayerUHC,
			Category: "knee_replacement",
			CPTCodes: []string{
				"27447",
				"27446",
			},
			RequiresPriorAuth: true,
			RequiredDocumentation: []string{
				"X-ray showing bone-on-bone arthritis (Kellgren-Lawrence Grade III-IV)",
				"BMI documentation (BMI < 40 preferred)",
				"Conservative treatment failure (PT, NSAIDs, injections) for 3+ months",
				"Functional assessment score (KOOS or similar)",
				"Medical clearance for surgery",
				"Orthopedic surgeon evaluation notes",
			},
			AutoApproveCriteria: []string{
				"Failed 3+ months conservative treatment with documented functional decline",
				"Kellgren-Lawrence Grade IV with severe functional limitation",
			},
			TypicalTurnaround: "5-7 business days",
			AppealWindow:      "180 days",
		},
		{
			Payer:    models.PayerUHC,
			Category: "cardiac_catheterization",
			CPTCodes: []string{
				"93458",
				"93459",
				"93460",
				"93461",
			},
			RequiresPriorAuth: true,
			RequiredDocumentation: []string{
				"Positive stress test or abnormal imaging",
				"Cardiac risk factor assessment",
				"EKG results",
				"Prior cardiac history",
				"Cardiology consultation notes",
			},
			AutoApproveCriteria: []string{
				"STEMI or NSTEMI presentation",
				"Unstable angina with positive troponin",
				"Acute coronary syndrome",
			},
			TypicalTurnaround: "1-2 business days (urgent), 3-5 business days (routine)",
			AppealWindow:      "180 days",
		},
		{
			Payer:    models.PayerUHC,
			Category: "biologics",
			CPTCodes: []string{
				"J0135",
				"J0717",
				"J1745",
				"J2182",
				"J3590",
			},
			RequiresPriorAuth: true,
			RequiredDocumentation: []string{
				"Confirmed diagnosis with supporting labs/imaging",
				"Trial and failure of conventional therapies",
				"Disease activity score (DAS28, CDAI, or equivalent)",
				"TB screening results",
				"Hepatitis B/C screening",
				"Vaccination status",
			},
			AutoApproveCriteria: []string{
				"Step therapy completion documented",
				"Continuation of previously approved biologic with documented efficacy",
			},
			TypicalTurnaround: "5-10 business days",
			AppealWindow:      "180 days",
		},
		{
			Payer:    models.PayerAetna,
			Category: "MRI",
			CPTCodes: []string{
				"70553",
				"70551",
				"70552",
				"72141",
				"72148",
				"73721",
			},
			RequiresPriorAuth: true,
			RequiredDocumentation: []string{
				"Clinical indication with ICD-10 code",
				"Conservative treatment attempted (4+ weeks)",
				"Physical exam findings",
				"Prior imaging if available",
			},
			AutoApproveCriteria: []string{
				"Emergency/trauma",
				"Cancer staging",
				"Pre-surgical planning for approved procedure",
			},
			TypicalTurnaround: "2 business days",
			AppealWindow:      "365 days",
		},
		{
			Payer:    models.PayerAetna,
			Category: "knee_replacement",
			CPTCodes: []string{
				"27447",
				"27446",
			},
			RequiresPriorAuth: true,
			RequiredDocumentation: []string{
				"Weight-bearing X-rays within 6 months",
				"BMI < 40 (or documented exception)",
				"Physical therapy completion (6+ weeks)",
				"Failed pharmacological management",
				"Surgical evaluation with operative plan",
			},
			AutoApproveCriteria: []string{
				"Grade IV OA with failed 6+ months conservative treatment",
			},
			TypicalTurnaround: "5 business days",
			AppealWindow:      "365 days",
		},
		{
			Payer:    models.PayerAetna,
			Category: "cardiac_catheterization",
			CPTCodes: []string{
				"93458",
				"93459",
				"93460",
				"93461",
			},
			RequiresPriorAuth: false,
			RequiredDocumentation: nil,
			AutoApproveCriteria: nil,
			TypicalTurnaround: "N/A - no prior auth required",
			AppealWindow:      "N/A",
		},
		{
			Payer:    models.PayerAetna,
			Category: "biologics",
			CPTCodes: []string{
				"J0135",
				"J0717",
				"J1745",
				"J2182",
			},
			RequiresPriorAuth: true,
			RequiredDocumentation: []string{
				"Diagnosis confirmation with labs",
				"Step therapy documentation (2+ conventional DMARDs)",
				"Disease activity assessment",
				"Infection screening (TB, Hep B/C)",
			},
			AutoApproveCriteria: []string{
				"Documented failure of 2+ conventional therapies",
				"Reauthorization with documented response",
			},
			TypicalTurnaround: "3-5 business days",
			AppealWindow:      "365 days",
		},
		{
			Payer:    models.PayerBCBS,
			Category: "MRI",
			CPTCodes: []string{
				"70553",
				"70551",
				"70552",
				"72141",
				"72148",
			},
			RequiresPriorAuth: true,
			RequiredDocumentation: []string{
				"Order from treating physician with clinical rationale",
				"Duration and nature of symptoms",
				"Conservative treatment history",
				"Relevant physical exam findings",
			},
			AutoApproveCriteria: []string{
				"Red flag symptoms (progressive neurological deficit, suspected cauda equina)",
				"Cancer surveillance per NCCN guidelines",
				"Post-operative evaluation",
			},
			TypicalTurnaround: "2-3 business days",
			AppealWindow:      "180 days",
		},
		{
			Payer:    models.PayerBCBS,
			Category: "knee_replacement",
			CPTCodes: []string{
				"27447",
				"27446",
			},
			RequiresPriorAuth: true,
			RequiredDocumentation: []string{
				"Radiographic evidence of severe arthritis",
				"Documented failure of non-surgical management (3+ months)",
				"Functional limitation documentation",
				"Medical necessity letter from orthopedic surgeon",
				"Pre-operative medical clearance",
			},
			AutoApproveCriteria: []string{
				"Revision of previously approved arthroplasty",
				"Fracture requiring arthroplasty",
			},
			TypicalTurnaround: "3-5 business days",
			AppealWindow:      "180 days",
		},
	}
}

func defaultDiagnoses() map[string]models.CodeInfo {
	return map[string]models.CodeInfo{
		"M17.11":   {Description: "Primary osteoarthritis, right knee", Category: "knee"},
		"M17.12":   {Description: "Primary osteoarthritis, left knee", Category: "knee"},
		"M17.0":    {Description: "Bilateral primary osteoarthritis of knee", Category: "knee"},
		"M54.5":    {Description: "Low back pain", Category: "spine"},
		"M54.2":    {Description: "Cervicalgia", Category: "spine"},
		"G89.29":   {Description: "Other chronic pain", Category: "pain"},
		"I25.10":   {Description: "Atherosclerotic heart disease of native coronary artery", Category: "cardiac"},
		"I20.0":    {Description: "Unstable angina", Category: "cardiac"},
		"I21.3":    {Description: "ST elevation myocardial infarction of unspecified site", Category: "cardiac"},
		"M05.79":   {Description: "Rheumatoid arthritis with rheumatoid factor, unspecified site", Category: "rheumatology"},
		"M06.9":    {Description: "Rheumatoid arthritis, unspecified", Category: "rheumatology"},
		"K50.90":   {Description: "Crohn's disease, unspecified, without complications", Category: "gastroenterology"},
		"L40.50":   {Description: "Arthropathic psoriasis, unspecified", Category: "rheumatology"},
		"C34.90":   {Description: "Malignant neoplasm of unspecified part of bronchus or lung", Category: "oncology"},
		"C50.919":  {Description: "Malignant neoplasm of unspecified site of breast", Category: "oncology"},
		"G43.909":  {Description: "Migraine, unspecified, not intractable", Category: "neurology"},
		"S83.511A": {Description: "Sprain of anterior cruciate ligament of right knee, initial encounter", Category: "knee"},
	}
}

func defaultProcedures() map[string]models.CodeInfo {
	return map[string]models.CodeInfo{
		"27447": {Description: "Total knee arthroplasty", Category: "knee_replacement"},
		"27446": {Description: "Partial knee arthroplasty (unicompartmental)", Category: "knee_replacement"},
		"70553": {Description: "MRI brain with and without contrast", Category: "MRI"},
		"70551": {Description: "MRI brain without contrast", Category: "MRI"},
		"70552": {Description: "MRI brain with contrast", Category: "MRI"},
		"72141": {Description: "MRI cervical spine without contrast", Category: "MRI"},
		"72148": {Description: "MRI lumbar spine without contrast", Category: "MRI"},
		"73721": {Description: "MRI lower extremity joint without contrast", Category: "MRI"},
		"93458": {Description: "Left heart catheterization", Category: "cardiac_catheterization"},
		"93459": {Description: "Left heart catheterization with left ventriculography", Category: "cardiac_catheterization"},
		"93460": {Description: "Right and left heart catheterization", Category: "cardiac_catheterization"},
		"93461": {Description: "Right and left heart catheterization with ventriculography", Category: "cardiac_catheterization"},
		"J0135": {Description: "Adalimumab injection (Humira)", Category: "biologics"},
		"J0717": {Description: "Certolizumab pegol injection (Cimzia)", Category: "biologics"},
		"J1745": {Description: "Infliximab injection (Remicade)", Category: "biologics"},
		"J2182": {Description: "Mepolizumab injection (Nucala)", Category: "biologics"},
		"J3590": {Description: "Unclassified biologic", Category: "biologics"},
		"99213": {Description: "Office visit, established patient, low complexity", Category: "office_visit"},
		"99214": {Description: "Office visit, established patient, moderate complexity", Category: "office_visit"},
	}
}

func defaultSampleCases() []models.SampleCase {
	return []models.SampleCase{
		{
			ID: "CASE-001",
			Input: models.CaseInput{
				Patient:            models.Patient{Name: "Maria Rodriguez", Age: 67, Sex: "Female"},
				Payer:              "united_healthcare",
				MemberID:           "UHC-889234571",
				ReferringPhysician: "Dr. James Chen, MD",
				PhysicianNPI:       "1234567890",
				ProcedureRequested: "Total Knee Replacement",
				DiagnosisCodes:     []string{"M17.11"},
				ProcedureCodes:     []string{"27447"},
				ClinicalNotes: `Patient is a 67-year-old female presenting with severe right knee pain and functional limitation
due to end-stage osteoarthritis. She has been symptomatic for 18 months with progressive worsening.

Conservative treatments attempted:
- Physical therapy: 12 weeks (completed March-June 2025), minimal improvement
- NSAIDs (Meloxicam 15mg daily): 6 months, partial relief only
- Corticosteroid injection (Kenalog 40mg): 2 injections (Jan 2025, July 2025), temporary relief lasting ~6 weeks each
- Hyaluronic acid injection (Synvisc): 1 series (Sept 2025), no significant improvement

Current functional status:
- Unable to walk more than 1 block without severe pain (VAS 8/10)
- Requires assistive device (cane) for ambulation
- Cannot climb stairs without significant difficulty
- Sleep disrupted nightly due to pain
- KOOS score: 34/100 (severe functional limitation)

Imaging: Weight-bearing AP/lateral X-rays (Dec 2025) show Kellgren-Lawrence Grade IV changes
with complete loss of medial joint space, subchondral sclerosis, and osteophyte formation.

BMI: 29.3 (overweight but within acceptable range)

Medical clearance obtained from primary care (Dr. Smith, Jan 2026).
Cardiac clearance obtained (Dr. Patel, Jan 2026).

Recommendation: Total knee arthroplasty, right knee. Patient has exhausted conservative options
and has significant functional limitation affecting quality of life.`,
			},
		},
		{
			ID: "CASE-002",
			Input: models.CaseInput{
				Patient:            models.Patient{Name: "James Thompson", Age: 52, Sex: "Male"},
				Payer:              "aetna",
				MemberID:           "AET-445678123",
				ReferringPhysician: "Dr. Sarah Williams, MD",
				PhysicianNPI:       "9876543210",
				ProcedureRequested: "MRI Lumbar Spine",
				DiagnosisCodes:     []string{"M54.5", "G89.29"},
				ProcedureCodes:     []string{"72148"},
				ClinicalNotes: `Patient is a 52-year-old male with chronic low back pain for 8 weeks, not improving with
conservative management. No red flag symptoms (no bowel/bladder dysfunction, no progressive
neurological deficit, no history of cancer, no unexplained weight loss).

Conservative treatments:
- NSAIDs (Ibuprofen 800mg TID): 4 weeks with minimal relief
- Physical therapy: Started 3 weeks ago, ongoing
- Muscle relaxant (Cyclobenzaprine): 2 weeks, some improvement in spasm

Physical exam:
- Tenderness over L4-L5 paraspinal muscles
- Negative straight leg raise bilaterally
- Full strength in lower extremities (5/5)
- Intact sensation
- Normal reflexes

No prior imaging of lumbar spine.

Requesting MRI lumbar spine to evaluate for disc pathology given persistent symptoms
despite 8 weeks of conservative treatment.`,
			},
		},
		{
			ID: "CASE-003",
			Input: models.CaseInput{
				Patient:            models.Patient{Name: "Robert Kim", Age: 71, Sex: "Male"},
				Payer:              "blue_cross_blue_shield",
				MemberID:           "BCBS-771234890",
				ReferringPhysician: "Dr. Michael Patel, MD",
				PhysicianNPI:       "5678901234",
				ProcedureRequested: "MRI Brain",
				DiagnosisCodes:     []string{"G43.909"},
				ProcedureCodes:     []string{"70553"},
				ClinicalNotes: `Patient is a 71-year-old male with new-onset severe headaches for 2 weeks, different from
his usual tension headaches. Patient describes sudden onset, worst headache of his life,
with associated photophobia and neck stiffness.

Concerning features:
- New headache pattern in patient >50 years old
- Sudden onset with maximum intensity at onset ("thunderclap" quality)
- Associated neck stiffness
- No prior history of migraines

Physical exam:
- BP 158/92
- Mild nuchal rigidity
- No papilledema on fundoscopic exam
- No focal neurological deficits
- GCS 15

CT Head (performed in ED): No acute intracranial hemorrhage. No mass lesion.

Requesting MRI Brain with and without contrast for further evaluation of new-onset
severe headache with concerning features in elderly patient. Need to rule out
cerebral venous thrombosis, vasculitis, or subtle mass lesion not visible on CT.`,
			},
		},
	}
}
