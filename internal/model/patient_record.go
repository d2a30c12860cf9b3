package model

import "time"

// RecordEntry is one element of a PatientRecord sequence: a free-form bundle
// of fields plus the bookkeeping every sequence element carries regardless
// of which sequence it lives in.
type RecordEntry struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

// PatientRecord is the structured bundle a triage front-end builds up about
// a single patient: a free-form base_info map plus seven ordered sequences.
// Every sequence element carries a short, collision-checked identifier
// generated by the common/id package; within a single sequence those
// identifiers are unique.
type PatientRecord struct {
	BaseInfo            map[string]any `json:"base_info"`
	Symptoms            []RecordEntry  `json:"symptoms"`
	Vitals              []RecordEntry  `json:"vitals"`
	Exams               []RecordEntry  `json:"exams"`
	Medications         []RecordEntry  `json:"medications"`
	FamilyHistory       []RecordEntry  `json:"family_history"`
	PastMedicalHistory  []RecordEntry  `json:"past_medical_history"`
	Others              []RecordEntry  `json:"others"`
}

// Sequence names a PatientRecord field addressed by upsert operations.
type Sequence string

const (
	SequenceSymptoms           Sequence = "symptoms"
	SequenceVitals             Sequence = "vitals"
	SequenceExams              Sequence = "exams"
	SequenceMedications        Sequence = "medications"
	SequenceFamilyHistory      Sequence = "family_history"
	SequencePastMedicalHistory Sequence = "past_medical_history"
	SequenceOthers             Sequence = "others"
)

func (p *PatientRecord) sequence(seq Sequence) *[]RecordEntry {
	switch seq {
	case SequenceSymptoms:
		return &p.Symptoms
	case SequenceVitals:
		return &p.Vitals
	case SequenceExams:
		return &p.Exams
	case SequenceMedications:
		return &p.Medications
	case SequenceFamilyHistory:
		return &p.FamilyHistory
	case SequencePastMedicalHistory:
		return &p.PastMedicalHistory
	case SequenceOthers:
		return &p.Others
	default:
		return nil
	}
}

// Upsert merges fields into the entry named id within seq, or appends a
// freshly generated entry when id is empty or not found. newID is called
// only on the append path; it must itself guarantee collision-freedom
// within the sequence (see common/id.NewShort).
func (p *PatientRecord) Upsert(seq Sequence, id string, fields map[string]any, now time.Time, newID func(existing map[string]struct{}) (string, error)) (string, error) {
	entries := p.sequence(seq)
	if entries == nil {
		return "", nil
	}

	if id != "" {
		for i := range *entries {
			if (*entries)[i].ID == id {
				merged := mergeFields((*entries)[i].Fields, fields)
				(*entries)[i].Fields = merged
				return id, nil
			}
		}
	}

	existing := make(map[string]struct{}, len(*entries))
	for _, e := range *entries {
		existing[e.ID] = struct{}{}
	}
	freshID, err := newID(existing)
	if err != nil {
		return "", err
	}

	*entries = append(*entries, RecordEntry{
		ID:        freshID,
		Fields:    mergeFields(nil, fields),
		CreatedAt: now,
	})
	return freshID, nil
}

func mergeFields(base, incoming map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(incoming))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}
