package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RefKind 区分引用的两种形态。
type RefKind uint8

const (
	RefInvalid RefKind = iota
	RefLegacy
	RefCanonical
)

// Ref 是技能/语言引用：旧数据里存的是展示名（Legacy），新数据存的是标识（Canonical）。
// 零值无效，只能通过 LegacyRef / CanonicalRef 构造。
type Ref struct {
	kind  RefKind
	value string
}

// LegacyRef 构造旧格式（名称）引用。
func LegacyRef(name string) Ref {
	return Ref{kind: RefLegacy, value: name}
}

// CanonicalRef 构造标识引用。
func CanonicalRef(id string) Ref {
	return Ref{kind: RefCanonical, value: id}
}

func (r Ref) Kind() RefKind     { return r.kind }
func (r Ref) IsLegacy() bool    { return r.kind == RefLegacy }
func (r Ref) IsCanonical() bool { return r.kind == RefCanonical }

// Name 返回旧格式的名称，Canonical 时为空。
func (r Ref) Name() string {
	if r.kind != RefLegacy {
		return ""
	}
	return r.value
}

// ID 返回标识，Legacy 时为空。
func (r Ref) ID() string {
	if r.kind != RefCanonical {
		return ""
	}
	return r.value
}

func (r Ref) String() string {
	switch r.kind {
	case RefLegacy:
		return fmt.Sprintf("legacy(%s)", r.value)
	case RefCanonical:
		return fmt.Sprintf("canonical(%s)", r.value)
	}
	return "invalid"
}

type canonicalPayload struct {
	ID    string `json:"id,omitempty"`
	OID   string `json:"$oid,omitempty"`
	Under string `json:"_id,omitempty"`
}

// MarshalJSON Legacy 编码为字符串，Canonical 编码为 {"id": "..."}。
func (r Ref) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case RefLegacy:
		return json.Marshal(r.value)
	case RefCanonical:
		return json.Marshal(canonicalPayload{ID: r.value})
	}
	return []byte("null"), nil
}

// UnmarshalJSON 字符串视为 Legacy；对象按 id / $oid / _id 顺序取标识。
func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return fmt.Errorf("decode legacy ref: %w", err)
		}
		*r = LegacyRef(name)
		return nil
	}
	var payload canonicalPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return fmt.Errorf("decode canonical ref: %w", err)
	}
	id := payload.ID
	if id == "" {
		id = payload.OID
	}
	if id == "" {
		id = payload.Under
	}
	if id == "" {
		return fmt.Errorf("decode canonical ref: missing id")
	}
	*r = CanonicalRef(id)
	return nil
}

// SkillEntry 是技能数组中的一项。
type SkillEntry struct {
	Ref     Ref    `json:"ref"`
	Level   *int   `json:"level,omitempty"`
	Details string `json:"details,omitempty"`
}

// CEFRLevel 语言熟练度。
type CEFRLevel string

const (
	CEFRA1     CEFRLevel = "A1"
	CEFRA2     CEFRLevel = "A2"
	CEFRB1     CEFRLevel = "B1"
	CEFRB2     CEFRLevel = "B2"
	CEFRC1     CEFRLevel = "C1"
	CEFRC2     CEFRLevel = "C2"
	CEFRNative CEFRLevel = "Native"
)

// Valid 判断熟练度是否合法。
func (l CEFRLevel) Valid() bool {
	switch l {
	case CEFRA1, CEFRA2, CEFRB1, CEFRB2, CEFRC1, CEFRC2, CEFRNative:
		return true
	}
	return false
}

// ParseCEFRLevel 大小写不敏感地解析熟练度。
func ParseCEFRLevel(s string) (CEFRLevel, error) {
	key := strings.TrimSpace(s)
	if strings.EqualFold(key, string(CEFRNative)) {
		return CEFRNative, nil
	}
	level := CEFRLevel(strings.ToUpper(key))
	if !level.Valid() {
		return "", fmt.Errorf("unknown proficiency %q", s)
	}
	return level, nil
}

// LanguageEntry 是语言数组中的一项。
type LanguageEntry struct {
	Ref         Ref       `json:"ref"`
	Proficiency CEFRLevel `json:"proficiency,omitempty"`
}

// Bundle 汇总一条 gig 上的全部技能与语言引用。
type Bundle struct {
	Soft         []SkillEntry    `json:"soft,omitempty"`
	Technical    []SkillEntry    `json:"technical,omitempty"`
	Professional []SkillEntry    `json:"professional,omitempty"`
	Languages    []LanguageEntry `json:"languages,omitempty"`
}

// Skills 按类别返回技能数组。
func (b Bundle) Skills(c Category) []SkillEntry {
	switch c {
	case CategorySoftSkill:
		return b.Soft
	case CategoryTechnicalSkill:
		return b.Technical
	case CategoryProfessionalSkill:
		return b.Professional
	}
	return nil
}

// Clone 深拷贝，避免调用方共享底层数组。
func (b Bundle) Clone() Bundle {
	return Bundle{
		Soft:         cloneSkills(b.Soft),
		Technical:    cloneSkills(b.Technical),
		Professional: cloneSkills(b.Professional),
		Languages:    cloneLanguages(b.Languages),
	}
}

func cloneSkills(in []SkillEntry) []SkillEntry {
	if in == nil {
		return nil
	}
	out := make([]SkillEntry, len(in))
	for i, e := range in {
		out[i] = e
		if e.Level != nil {
			lvl := *e.Level
			out[i].Level = &lvl
		}
	}
	return out
}

func cloneLanguages(in []LanguageEntry) []LanguageEntry {
	if in == nil {
		return nil
	}
	out := make([]LanguageEntry, len(in))
	copy(out, in)
	return out
}
