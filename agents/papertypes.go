// Package agents implements the pipeline collaborators: the research
// collector, the draft composer, and the reviewer.
package agents

import "github.com/paperpilot/paperpilot/types"

// PaperType describes the structural template a composed paper follows.
type PaperType struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Sections    []string `json:"sections"`
	WordCount   string   `json:"word_count"`
	Figures     string   `json:"figures"`
}

// DefaultPaperType is used when a project does not select one.
const DefaultPaperType = "regular"

var paperTypes = map[string]PaperType{
	"regular": {
		Key:         "regular",
		Name:        "Regular Research Paper",
		Description: "A full-length research paper presenting original research with comprehensive methods and results.",
		Sections:    []string{"Abstract", "Introduction", "Materials and Methods", "Results", "Discussion", "Conclusion", "References"},
		WordCount:   "4000-8000 words",
		Figures:     "4-8 figures",
	},
	"letter": {
		Key:         "letter",
		Name:        "Letter",
		Description: "A short, focused paper reporting novel and significant findings that require rapid publication.",
		Sections:    []string{"Abstract", "Introduction", "Results and Discussion", "Methods", "References"},
		WordCount:   "1500-2500 words",
		Figures:     "2-3 figures",
	},
	"review": {
		Key:         "review",
		Name:        "Review Paper",
		Description: "A comprehensive analysis and discussion of existing literature on a specific topic.",
		Sections:    []string{"Abstract", "Introduction", "Background/Literature Review", "Current State of Knowledge", "Future Directions", "Conclusion", "References"},
		WordCount:   "5000-10000 words",
		Figures:     "5-10 figures",
	},
	"technical_note": {
		Key:         "technical_note",
		Name:        "Technical Note",
		Description: "A brief paper describing novel techniques, methods, or tools.",
		Sections:    []string{"Abstract", "Introduction", "Technical Description", "Application Example", "Discussion", "References"},
		WordCount:   "2000-3000 words",
		Figures:     "2-4 figures",
	},
	"case_study": {
		Key:         "case_study",
		Name:        "Case Study",
		Description: "An in-depth analysis of a specific case, event, or implementation.",
		Sections:    []string{"Abstract", "Introduction", "Case Description", "Methods/Approach", "Results", "Discussion", "Conclusion", "References"},
		WordCount:   "3000-5000 words",
		Figures:     "3-6 figures",
	},
	"perspective": {
		Key:         "perspective",
		Name:        "Perspective/Opinion Paper",
		Description: "A paper presenting the author's opinion or perspective on a specific topic.",
		Sections:    []string{"Abstract", "Introduction", "Main Arguments", "Implications", "Conclusion", "References"},
		WordCount:   "2000-4000 words",
		Figures:     "1-3 figures",
	},
	"survey": {
		Key:         "survey",
		Name:        "Survey Paper",
		Description: "A comprehensive overview of a research area with categorization and classification of existing work.",
		Sections:    []string{"Abstract", "Introduction", "Survey Methodology", "Classification Framework", "Literature Review by Categories", "Open Challenges and Future Directions", "Conclusion", "References"},
		WordCount:   "6000-12000 words",
		Figures:     "6-12 figures",
	},
}

// GetPaperType resolves a paper type key. An empty key resolves to the
// default; an unknown key is a configuration error.
func GetPaperType(key string) (PaperType, error) {
	if key == "" {
		key = DefaultPaperType
	}
	pt, ok := paperTypes[key]
	if !ok {
		return PaperType{}, types.NewErrorf(types.ErrConfiguration, "unknown paper type %q", key)
	}
	return pt, nil
}

// PaperTypes lists every registered paper type keyed by name.
func PaperTypes() map[string]PaperType {
	out := make(map[string]PaperType, len(paperTypes))
	for k, v := range paperTypes {
		out[k] = v
	}
	return out
}
