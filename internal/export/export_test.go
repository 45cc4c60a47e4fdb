package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jeanpaul/sakemate/internal/types"
)

var (
	hanako = types.User{ID: "u1", Name: "Hanako", CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	dassai = types.SakeBrand{
		ID: "b1", UserID: "u1", Name: "獺祭", Brewery: "旭酒造", Region: "山口県",
		FlavorProfile: types.FlavorProfile{Sweetness: 6, Acidity: 3, Umami: 4, Richness: 3, Fragrance: 8},
		CreatedAt:     time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC),
	}
	orphan = types.SakeBrand{ID: "b2", UserID: "gone", Name: "田酒", FlavorProfile: types.NeutralFlavorProfile()}
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"xlsx": FormatXLSX, " YAML": FormatYAML, "yml": FormatYAML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []types.User{hanako}, []types.SakeBrand{dassai, orphan}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Brands"}, f.GetSheetList())
	rows, err := f.GetRows("Brands")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, brandColumns, rows[0])
	assert.Equal(t, []string{"Hanako", "獺祭", "旭酒造", "山口県", "6", "3", "4", "3", "8", "2024-04-02"}, rows[1])
	assert.Equal(t, "", rows[2][0])
	assert.Equal(t, "田酒", rows[2][1])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil, []types.SakeBrand{dassai}))

	var got struct {
		Users  []types.User      `json:"users"`
		Brands []types.SakeBrand `json:"brands"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.NotNil(t, got.Users)
	assert.Empty(t, got.Users)
	require.Len(t, got.Brands, 1)
	assert.Equal(t, "獺祭", got.Brands[0].Name)
}

func TestYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, []types.SakeBrand{dassai}))
	assert.Contains(t, buf.String(), "brands:")
	assert.NotContains(t, buf.String(), "userId")

	entries, err := ReadYAML(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "獺祭", entries[0].Name)
	assert.Equal(t, "山口県", entries[0].Region)
	require.NotNil(t, entries[0].FlavorProfile)
	assert.Equal(t, dassai.FlavorProfile, *entries[0].FlavorProfile)
}

func TestReadYAML(t *testing.T) {
	entries, err := ReadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = ReadYAML(strings.NewReader("brands:\n  - brewery: nobody\n"))
	assert.ErrorContains(t, err, "entry 1 has no name")

	_, err = ReadYAML(strings.NewReader("brands: [oops"))
	assert.Error(t, err)
}

type fakeAnalyzer struct {
	calls  []string
	cancel context.CancelFunc
}

func (f *fakeAnalyzer) AnalyzeSakeBrand(_ context.Context, name string) types.BrandAnalysis {
	f.calls = append(f.calls, name)
	if f.cancel != nil {
		f.cancel()
	}
	return types.BrandAnalysis{
		IdentifiedName: name + " 特別純米",
		Brewery:        "from model",
		FlavorProfile:  types.FlavorProfile{Sweetness: 2, Acidity: 6, Umami: 7, Richness: 7, Fragrance: 3},
	}
}

type recorder struct {
	brands []types.SakeBrand
	failAt int
}

func (r *recorder) AddBrand(_ context.Context, b types.SakeBrand) error {
	if r.failAt > 0 && len(r.brands)+1 == r.failAt {
		return errors.New("disk full")
	}
	r.brands = append(r.brands, b)
	return nil
}

func TestImport(t *testing.T) {
	fp := types.FlavorProfile{Sweetness: 9, Acidity: 1, Umami: 2, Richness: 3, Fragrance: 9}
	entries := []Entry{
		{Name: "新政", FlavorProfile: &fp},
		{Name: "黒龍", Brewery: "黒龍酒造"},
	}
	a := &fakeAnalyzer{}
	dst := &recorder{}

	n, err := Import(context.Background(), dst, a, "u1", entries)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"黒龍"}, a.calls)

	require.Len(t, dst.brands, 2)
	assert.Equal(t, "新政", dst.brands[0].Name)
	assert.Equal(t, fp, dst.brands[0].FlavorProfile)
	assert.Equal(t, "黒龍 特別純米", dst.brands[1].Name)
	assert.Equal(t, "黒龍酒造", dst.brands[1].Brewery)
	assert.Equal(t, 7, dst.brands[1].FlavorProfile.Umami)
	for _, b := range dst.brands {
		assert.Equal(t, "u1", b.UserID)
	}
}

func TestImport_StopsOnWriteError(t *testing.T) {
	fp := types.NeutralFlavorProfile()
	entries := []Entry{{Name: "a", FlavorProfile: &fp}, {Name: "b", FlavorProfile: &fp}, {Name: "c", FlavorProfile: &fp}}

	n, err := Import(context.Background(), &recorder{failAt: 2}, &fakeAnalyzer{}, "u1", entries)
	assert.Equal(t, 1, n)
	assert.ErrorContains(t, err, `import "b"`)
}

func TestImport_CancelDuringLookup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fp := types.NeutralFlavorProfile()
	entries := []Entry{{Name: "新政", FlavorProfile: &fp}, {Name: "黒龍"}, {Name: "而今"}}
	dst := &recorder{}

	n, err := Import(ctx, dst, &fakeAnalyzer{cancel: cancel}, "u1", entries)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, n)
	require.Len(t, dst.brands, 1)
	assert.Equal(t, "新政", dst.brands[0].Name)
}
