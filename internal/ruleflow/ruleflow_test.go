package ruleflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDs struct{ n int }

func (g *seqIDs) Generate() string {
	g.n++
	return "id-" + string(rune('0'+g.n))
}

func sample() *Configuration {
	return &Configuration{
		Version:  FormatVersion,
		Metadata: Metadata{AppID: "app", RuntimeID: "rt", ClassName: "Engine"},
		Imports:  []string{"import math"},
		Packages: []Package{
			{ID: "p0", Name: LockedPackageName, ExecutionOrder: 0, Rules: []Rule{{ID: "r0", Name: "init", Code: "pass"}}},
			{ID: "p1", Name: "A", ExecutionOrder: 1, Condition: Ptr("x > 1"), Rules: []Rule{
				{ID: "r1", Name: "r", Code: "y = 1", FreeCode: Ptr(""), OutputAssignments: []OutputAssignment{{Attribute: "y", Value: "1", SourceLine: Ptr(3)}}},
			}},
		},
	}
}

func TestNewDefault(t *testing.T) {
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600))
	cfg := NewDefault("app", "rt", "", now, &seqIDs{})

	assert.Equal(t, FormatVersion, cfg.Version)
	assert.Equal(t, DefaultClassName, cfg.Metadata.ClassName)
	assert.Equal(t, "2024-03-04T04:06:07Z", cfg.Metadata.CreatedAt)
	assert.Equal(t, cfg.Metadata.CreatedAt, cfg.Metadata.ModifiedAt)
	require.Len(t, cfg.Packages, 1)
	assert.True(t, cfg.Packages[0].Locked())
	assert.Equal(t, "id-1", cfg.Packages[0].ID)
	require.Len(t, cfg.Packages[0].Rules, 1)
	assert.Equal(t, "id-2", cfg.Packages[0].Rules[0].ID)
	assert.Equal(t, "pass", cfg.Packages[0].Rules[0].Code)
	assert.NotNil(t, cfg.Imports)
	assert.NoError(t, Validate(cfg))
}

func TestClone_Independent(t *testing.T) {
	orig := sample()
	c := orig.Clone()
	require.Equal(t, orig, c)

	c.Imports[0] = "changed"
	c.Packages[1].Name = "B"
	*c.Packages[1].Condition = "changed"
	c.Packages[1].Rules[0].OutputAssignments[0].Value = "2"
	*c.Packages[1].Rules[0].OutputAssignments[0].SourceLine = 9
	*c.Packages[1].Rules[0].FreeCode = "changed"

	assert.Equal(t, "import math", orig.Imports[0])
	assert.Equal(t, "A", orig.Packages[1].Name)
	assert.Equal(t, "x > 1", *orig.Packages[1].Condition)
	assert.Equal(t, "1", orig.Packages[1].Rules[0].OutputAssignments[0].Value)
	assert.Equal(t, 3, *orig.Packages[1].Rules[0].OutputAssignments[0].SourceLine)
	assert.Equal(t, "", *orig.Packages[1].Rules[0].FreeCode)
}

func TestClone_PreservesNilSlices(t *testing.T) {
	c := sample()
	clone := c.Clone()
	assert.Nil(t, clone.Constants)
	assert.Nil(t, clone.Packages[0].Rules[0].OutputAssignments)
	assert.Equal(t, MustHash(c), MustHash(clone))

	var nilCfg *Configuration
	assert.Nil(t, nilCfg.Clone())
}

func TestHash_ContentAddressed(t *testing.T) {
	a := sample()
	b := sample()
	assert.Equal(t, MustHash(a), MustHash(b))
	assert.Len(t, MustHash(a), 64)

	b.Packages[1].Name = "B"
	assert.NotEqual(t, MustHash(a), MustHash(b))
}

func TestHash_IgnoresModifiedAt(t *testing.T) {
	a := sample()
	b := sample()
	b.Metadata.ModifiedAt = "2030-01-01T00:00:00Z"
	assert.Equal(t, MustHash(a), MustHash(b))
	assert.NotEqual(t, a.Metadata.ModifiedAt, b.Metadata.ModifiedAt, "hashing must not mutate the document")

	b.Metadata.CreatedAt = "2030-01-01T00:00:00Z"
	assert.NotEqual(t, MustHash(a), MustHash(b))
}

func TestHash_NFCEquivalence(t *testing.T) {
	a := sample()
	b := sample()
	a.Packages[1].Name = "caf\u00e9"  // precomposed
	b.Packages[1].Name = "cafe\u0301" // combining accent
	assert.Equal(t, MustHash(a), MustHash(b))
}

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"sorted keys", map[string]any{"b": 1, "a": true}, `{"a":true,"b":1}`},
		{"no html escape", map[string]string{"k": "<a&b>"}, `{"k":"<a&b>"}`},
		{"control chars", "a\nb\u0001", `"a\nb\u0001"`},
		{"null", nil, `null`},
		{"nested", []any{map[string]any{"z": []int{2, 1}}}, `[{"z":[2,1]}]`},
		{"utf16 order", map[string]int{"\U0001F600": 1, "ﬁ": 2}, `{"😀":1,"ﬁ":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]float64{"x": 1.5})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(sample()))

	t.Run("order mismatch", func(t *testing.T) {
		c := sample()
		c.Packages[1].ExecutionOrder = 5
		assert.True(t, IsInvariantError(Validate(c), InvOrderMismatch))
	})
	t.Run("locked displaced", func(t *testing.T) {
		c := sample()
		c.Packages[0], c.Packages[1] = c.Packages[1], c.Packages[0]
		c.Packages[0].ExecutionOrder, c.Packages[1].ExecutionOrder = 0, 1
		assert.True(t, IsInvariantError(Validate(c), InvLockedDisplaced))
	})
	t.Run("duplicate locked", func(t *testing.T) {
		c := sample()
		c.Packages[1].Name = LockedPackageName
		assert.True(t, IsInvariantError(Validate(c), InvDuplicateLocked))
	})
	t.Run("duplicate package id", func(t *testing.T) {
		c := sample()
		c.Packages[1].ID = "p0"
		assert.True(t, IsInvariantError(Validate(c), InvDuplicateID))
	})
	t.Run("empty rule id", func(t *testing.T) {
		c := sample()
		c.Packages[1].Rules[0].ID = ""
		assert.True(t, IsInvariantError(Validate(c), InvEmptyID))
	})
	t.Run("reports every violation", func(t *testing.T) {
		c := sample()
		c.Packages[1].ExecutionOrder = 7
		c.Packages[1].ID = ""
		err := Validate(c)
		assert.True(t, IsInvariantError(err, InvOrderMismatch))
		assert.True(t, IsInvariantError(err, InvEmptyID))
	})
}

func TestLookups(t *testing.T) {
	c := sample()
	assert.Equal(t, 0, c.LockedIndex())
	assert.Equal(t, 1, c.PackageIndex("p1"))
	assert.Equal(t, -1, c.PackageIndex("nope"))
	assert.Equal(t, 0, c.Packages[1].RuleIndex("r1"))
	assert.Equal(t, -1, c.Packages[1].RuleIndex("r0"))
	assert.True(t, c.HasID("r0"))
	assert.False(t, c.HasID("zzz"))

	c.Packages = c.Packages[1:]
	assert.Equal(t, -1, c.LockedIndex())
}

func TestComposeCode(t *testing.T) {
	outs := []OutputAssignment{{Attribute: "score", Value: "10"}, {Attribute: "ok", Value: "True"}}

	assert.Equal(t, "x = f()\nscore = 10\nok = True", ComposeCode(Ptr("x = f()\n"), outs))
	assert.Equal(t, "score = 10\nok = True", ComposeCode(Ptr(""), outs))
	assert.Equal(t, "score = 10\nok = True", ComposeCode(nil, outs))
	assert.Equal(t, "", ComposeCode(nil, nil))
}

func TestRegenerateCode(t *testing.T) {
	plain := Rule{Code: "keep me"}
	assert.Equal(t, "keep me", RegenerateCode(plain))

	structured := Rule{Code: "stale", FreeCode: Ptr("a = 1"), OutputAssignments: []OutputAssignment{{Attribute: "b", Value: "a"}}}
	assert.Equal(t, "a = 1\nb = a", RegenerateCode(structured))
}

func TestRuleName(t *testing.T) {
	tests := map[string]string{
		"Vérifier l'âge":   "rule_verifier_l_age",
		"  Check Score  ":  "rule_check_score",
		"rule_existing":    "rule_existing",
		"Rule Existing":    "rule_existing",
		"":                 "rule_unnamed",
		"rule":             "rule_unnamed",
		"!!!":              "rule_unnamed",
		"Étape 2 - calcul": "rule_etape_2_calcul",
	}
	for in, want := range tests {
		assert.Equal(t, want, RuleName(in), "input %q", in)
	}
}

func TestNullableString_JSON(t *testing.T) {
	var fields PackageFields
	require.NoError(t, jsonUnmarshal(`{}`, &fields))
	assert.False(t, fields.Condition.Set)

	require.NoError(t, jsonUnmarshal(`{"condition":null}`, &fields))
	assert.True(t, fields.Condition.Set)
	assert.Nil(t, fields.Condition.Value)

	require.NoError(t, jsonUnmarshal(`{"condition":"x"}`, &fields))
	assert.True(t, fields.Condition.Set)
	assert.Equal(t, "x", *fields.Condition.Value)
}

func TestMarshalAction_WireForm(t *testing.T) {
	data, err := MarshalAction(MovePackage{ID: "p1", Direction: Up})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"MOVE_PACKAGE","id":"p1","direction":"up"}`, string(data))

	data, err = MarshalAction(UpdatePackage{ID: "p1", Fields: PackageFields{Condition: SetNull()}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"UPDATE_PACKAGE","id":"p1","fields":{"condition":null}}`, string(data))

	data, err = MarshalAction(UpdatePackage{ID: "p1", Fields: PackageFields{Name: Ptr("B")}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"UPDATE_PACKAGE","id":"p1","fields":{"name":"B"}}`, string(data))
}

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction([]byte(`{"type":"REORDER_PACKAGE","id":"p2","new_index":1}`))
	require.NoError(t, err)
	assert.Equal(t, ReorderPackage{ID: "p2", NewIndex: 1}, a)

	a, err = DecodeAction([]byte(`{"type":"UPDATE_RULE","package_id":"p","rule_id":"r","fields":{"condition":null,"code":"x"}}`))
	require.NoError(t, err)
	ur := a.(UpdateRule)
	assert.True(t, ur.Fields.Condition.Set)
	assert.Nil(t, ur.Fields.Condition.Value)
	assert.Equal(t, "x", *ur.Fields.Code)
	assert.Nil(t, ur.Fields.Name)
}

func TestDecodeAction_RoundTripsWireForm(t *testing.T) {
	orig := AddOutputAssignment{PackageID: "p", RuleID: "r", Assignment: OutputAssignment{Attribute: "a", Value: "1", SourceLine: Ptr(4)}}
	data, err := MarshalAction(orig)
	require.NoError(t, err)
	back, err := DecodeAction(data)
	require.NoError(t, err)
	assert.Equal(t, orig, back)
}

func TestDecodeAction_Unknown(t *testing.T) {
	_, err := DecodeAction([]byte(`{"type":"EXPLODE"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAction))

	_, err = DecodeActions([]byte(`[{"type":"DELETE_PACKAGE","id":"x"},{"type":"NOPE"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actions[1]")
}

func TestActionHash_StableAcrossKeyOrder(t *testing.T) {
	h1, err := ActionHash(MovePackage{ID: "p", Direction: Down})
	require.NoError(t, err)
	h2, err := ActionHash(MovePackage{ID: "p", Direction: Down})
	require.NoError(t, err)
	h3, err := ActionHash(MovePackage{ID: "p", Direction: Up})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, `Add package "A"`, AddPackage{Package: Package{Name: "A"}}.Describe())
	assert.Equal(t, "Move package p1 down", MovePackage{ID: "p1", Direction: Down}.Describe())
	assert.Equal(t, "Reorder package p1 to position 3", ReorderPackage{ID: "p1", NewIndex: 3}.Describe())
}

func TestParseConfiguration(t *testing.T) {
	orig := sample()
	data, err := MarshalConfiguration(orig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"execution_order": 1`)
	assert.Contains(t, string(data), `"outputAssignments"`)

	back, err := ParseConfiguration(data)
	require.NoError(t, err)
	assert.Equal(t, MustHash(orig), MustHash(back))

	_, err = ParseConfiguration([]byte(`{"version":"1.0","bogus":1}`))
	assert.Error(t, err)

	_, err = ParseConfiguration([]byte(`{"version":"2.0"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "etape_2", Slug("Étape 2"))
	assert.Equal(t, "", Slug("--"))
	assert.Equal(t, "a_b", Slug("__A__B__"))
}
