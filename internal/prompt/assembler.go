package prompt

import (
	"fmt"
	"strings"

	"anayasa/internal/domain"
)

// Role of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one entry of the sequence handed to the generator.
type Message struct {
	Role    Role
	Content string
}

// Preset holds the fixed wording for one answer language.
type Preset struct {
	// Title names the assistant in the chat shell.
	Title       string
	Instruction string
	Refusal     string
	Placeholder string
	Documents   string
	Question    string
	Answer      string
}

const (
	EnglishRefusal     = "This information is not found in the provided constitution text."
	EnglishPlaceholder = "no answer could be retrieved"

	TurkishRefusal     = "Bu bilgi sağlanan Anayasa metninde bulunmamaktadır."
	TurkishPlaceholder = "Yanıt alınamadı."
)

var presets = map[string]Preset{
	"en": {
		Instruction: "You are an assistant that answers questions using only the provided articles of the Constitution of the Republic of Turkey. " +
			"Use ONLY the documents given below to compose your answer. " +
			"If the information is not in the documents, reply exactly: '" + EnglishRefusal + "' " +
			"Limit your answer to four sentences and cite the article number where possible.",
		Title:       "Turkish Constitution Assistant",
		Refusal:     EnglishRefusal,
		Placeholder: EnglishPlaceholder,
		Documents:   "Documents:",
		Question:    "Question:",
		Answer:      "Answer:",
	},
	"tr": {
		Instruction: "Sen, yalnızca sağlanan Türkiye Anayasası metinlerini kullanarak soruları yanıtlayan bir asistansın. " +
			"Cevabını oluşturmak için SADECE aşağıda verilen belgeleri kullan. " +
			"Eğer bilgi belgelerde yoksa, '" + TurkishRefusal + "' de. " +
			"Cevabını dört cümleyle sınırla ve mümkünse madde numarasını belirt.",
		Title:       "Türkiye Anayasası Asistanı",
		Refusal:     TurkishRefusal,
		Placeholder: TurkishPlaceholder,
		Documents:   "Belgeler:",
		Question:    "Soru:",
		Answer:      "Yanıt:",
	},
}

// Lookup returns the preset for a language code.
func Lookup(lang string) (Preset, error) {
	if lang == "" {
		lang = "en"
	}
	p, ok := presets[lang]
	if !ok {
		return Preset{}, fmt.Errorf("unknown prompt language %q", lang)
	}
	return p, nil
}

// Assembler renders the grounding instruction, retrieved articles and the
// question into a system/user message pair.
type Assembler struct {
	preset Preset
}

func NewAssembler(p Preset) *Assembler {
	return &Assembler{preset: p}
}

// Preset returns the wording in use.
func (a *Assembler) Preset() Preset { return a.preset }

// Assemble keeps the retrieval order and never shortens article text.
func (a *Assembler) Assemble(question string, results []domain.SearchResult) []Message {
	var b strings.Builder
	b.WriteString(a.preset.Documents)
	b.WriteString("\n")
	for _, r := range results {
		b.WriteString(r.Unit.Text())
		b.WriteString("\n\n")
	}
	b.WriteString("\n")
	b.WriteString(a.preset.Question)
	b.WriteString(" ")
	b.WriteString(question)
	b.WriteString("\n")
	b.WriteString(a.preset.Answer)
	return []Message{
		{Role: RoleSystem, Content: a.preset.Instruction},
		{Role: RoleUser, Content: b.String()},
	}
}
