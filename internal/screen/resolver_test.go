package screen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Basic(t *testing.T) {
	r := NewResolver(nil)
	screens := map[string]int{
		"cinema_name_1#screen1": 100,
		"cinema_name_1#screen2": 200,
	}

	assert.Equal(t, 100, r.Resolve(screens, "cinema_name_1", "screen1"))
	assert.Equal(t, 200, r.Resolve(screens, "cinema_name_1", "screen2"))
	assert.Equal(t, 0, r.Resolve(screens, "cinema_name_1", "screen3"))
	assert.Equal(t, 0, r.Resolve(screens, "cinema_name_2", "screen1"))

	// a name that prefixes another cinema's name is still another cinema
	other := map[string]int{
		"cinema_name_10#screen1": 100,
		"cinema_name_10#screen2": 200,
	}
	assert.Equal(t, 0, r.Resolve(other, "cinema_name_1", "screen1"))
	assert.Equal(t, StageScope, r.ResolveDetail(other, "cinema_name_1", "screen1").Stage)
	assert.Equal(t, 100, r.Resolve(other, "cinema_name_10", "screen1"))
}

func TestResolve_NumberStage(t *testing.T) {
	r := NewResolver(nil)
	screens := map[string]int{
		"C#SCREEN1":  80,
		"C#SCREEN10": 300,
		"C#SCREEN11": 120,
	}

	tests := []struct {
		target string
		want   int
	}{
		{"SCREEN10", 300},
		{"ＳＣＲＥＥＮ１０", 300},
		{"screen 01", 80},
		{"スクリーン11", 120},
		{"シアター1 (2D)", 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			res := r.ResolveDetail(screens, "C", tt.target)
			assert.Equal(t, tt.want, res.Seats)
		})
	}

	res := r.ResolveDetail(screens, "C", "SCREEN10")
	assert.Equal(t, StageNumber, res.Stage)
}

func TestResolve_SingleUnprefixedScreen(t *testing.T) {
	r := NewResolver(nil)
	assert.Equal(t, 200, r.Resolve(map[string]int{"test_screen": 200}, "test_cinema", "test_screen"))
}

func TestResolve_AliasStage(t *testing.T) {
	r := NewResolver(nil)
	screens := map[string]int{
		"C#SCREEN1":    100,
		"C#PREMIER1":   40,
		"C#SCREEN2":    150,
		"C#セレクト":       60,
		"C#プラチナシート1": 24,
	}

	// same number on a normal and a premium screen
	assert.Equal(t, 40, r.Resolve(screens, "C", "プレミア1"))
	assert.Equal(t, 100, r.Resolve(screens, "C", "スクリーン1"))
	assert.Equal(t, 60, r.Resolve(screens, "C", "SELECT"))

	res := r.ResolveDetail(screens, "C", "プレミア1")
	assert.Equal(t, StageAlias, res.Stage)
}

func TestAliasTable_GroupLaterGroupWins(t *testing.T) {
	tbl := DefaultAliasTable()
	g, ok := tbl.Group("PREMIER")
	require.True(t, ok)
	assert.Equal(t, 0, g)

	// both PREMIER and SELECT appear; SELECT is listed after PREMIER
	g, ok = tbl.Group("プレミアセレクト")
	require.True(t, ok)
	assert.Contains(t, tbl.Aliases(g), "SELECT")

	_, ok = tbl.Group("SCREEN1")
	assert.False(t, ok)

	r := NewResolver(tbl)
	screens := map[string]int{"C#PREMIER": 40, "C#SELECT": 60, "C#SCREEN1": 100}
	assert.Equal(t, 60, r.Resolve(screens, "C", "プレミアセレクト"))
}

func TestResolve_AliasFallbackKeepsCandidates(t *testing.T) {
	r := NewResolver(nil)
	// only special screens: the removal filter would empty the set
	screens := map[string]int{
		"C#PREMIER": 40,
	}
	assert.Equal(t, 40, r.Resolve(screens, "C", "スクリーン"))

	// special target with no screen of its group keeps the set
	screens = map[string]int{
		"C#SCREEN1": 100,
		"C#SCREEN2": 120,
	}
	assert.Equal(t, 0, r.Resolve(screens, "C", "SELECT"))
}

func TestResolve_SubCinemaStage(t *testing.T) {
	r := NewResolver(nil)
	screens := map[string]int{
		"アートフォーラム#スクリーン1": 60,
		"フォーラム盛岡#スクリーン1":  120,
		"フォーラム盛岡#スクリーン2":  90,
	}
	res := r.ResolveDetail(screens, "フォーラム盛岡", "スクリーン1")
	assert.Equal(t, 120, res.Seats)
	assert.Equal(t, StageSubCinema, res.Stage)

	assert.Equal(t, 60, r.Resolve(screens, "アートフォーラム", "1"))
}

func TestResolve_Ambiguous(t *testing.T) {
	r := NewResolver(nil)
	screens := map[string]int{
		"A#SCREEN1":  100,
		"A#THEATER1": 110,
	}
	res := r.ResolveDetail(screens, "A", "1")
	assert.Equal(t, 0, res.Seats)
	assert.Equal(t, StageNone, res.Stage)
	assert.Equal(t, 2, res.Candidates)
	assert.False(t, res.Resolved())

	assert.Equal(t, 0, r.Resolve(nil, "A", "SCREEN1"))
}

func TestResolve_CinemaRules(t *testing.T) {
	r := NewResolver(nil)
	screens := map[string]int{
		"TOHOシネマズ日劇#NICHIGEKI-1": 946,
		"TOHOシネマズ日劇#NICHIGEKI-2": 490,
	}
	assert.Equal(t, 490, r.Resolve(screens, "TOHOシネマズ 日劇", "日劇2"))

	screens = map[string]int{
		"TOHOシネマズなんば#本館SELECT":    70,
		"TOHOシネマズなんば#本館SCREEN1":   300,
		"TOHOシネマズなんば#別館SCREEN10":  110,
	}
	assert.Equal(t, 70, r.Resolve(screens, "TOHOシネマズなんば", "(本館)SELECT"))
}

func TestAliasTable_Convert(t *testing.T) {
	tbl := DefaultAliasTable()
	assert.Equal(t, "MIYUKIZA", tbl.Convert("みゆき座", "TOHOシネマズスカラ座・みゆき座"))
	assert.Equal(t, "CHANTER-1", tbl.Convert("SCREEN1", "TOHOシネマズシャンテ"))
	assert.Equal(t, "本館SCREEN1", tbl.Convert("SCREEN1(本館)", "TOHOシネマズ天神"))
	assert.Equal(t, "SCREEN1", tbl.Convert("SCREEN1", "other"))
	assert.True(t, tbl.HasRules("ＴＯＨＯシネマズ高岡"))
}

func TestLoadAliasTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.json")
	body := `{"groups":[["IMAX","アイマックス"]],"cinemas":{"X":[{"pattern":"^シアター","replace":"SCREEN"}]}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	tbl, err := LoadAliasTable(path)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Groups())
	assert.Equal(t, "SCREEN3", tbl.Convert("シアター3", "X"))

	r := NewResolver(tbl)
	screens := map[string]int{"X#SCREEN3": 90, "X#IMAX3": 400}
	assert.Equal(t, 400, r.Resolve(screens, "X", "アイマックス3"))
	assert.Equal(t, 90, r.Resolve(screens, "X", "シアター3"))

	_, err = LoadAliasTable(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = NewAliasTable([][]string{{}}, nil)
	assert.Error(t, err)
	_, err = NewAliasTable(nil, map[string][]Rule{"X": {{Pattern: "("}}})
	assert.Error(t, err)
}
