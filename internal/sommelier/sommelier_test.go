package sommelier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/sakemate/internal/menu"
	"github.com/jeanpaul/sakemate/internal/provider"
	"github.com/jeanpaul/sakemate/internal/types"
)

type fakeProvider struct {
	reply string
	err   error
	got   []provider.Message
}

func (f *fakeProvider) Name() string      { return "fake" }
func (f *fakeProvider) ModelName() string { return "fake-1" }

func (f *fakeProvider) Generate(_ context.Context, msgs []provider.Message) (string, error) {
	f.got = msgs
	return f.reply, f.err
}

var neutral = types.FlavorProfile{Sweetness: 5, Acidity: 5, Umami: 5, Richness: 5, Fragrance: 5}

func TestAnalyzeSakeBrand(t *testing.T) {
	p := &fakeProvider{reply: "```json\n" + `{
		"identifiedName": "獺祭 純米大吟醸45",
		"brewery": "旭酒造",
		"region": "山口県",
		"flavorProfile": {"sweetness": 6, "acidity": 3, "umami": 4, "richness": 3, "fragrance": 8}
	}` + "\n```"}
	s := New(p)

	got := s.AnalyzeSakeBrand(context.Background(), "獺祭")
	assert.Equal(t, "獺祭 純米大吟醸45", got.IdentifiedName)
	assert.Equal(t, "旭酒造", got.Brewery)
	assert.Equal(t, "山口県", got.Region)
	assert.Equal(t, types.FlavorProfile{Sweetness: 6, Acidity: 3, Umami: 4, Richness: 3, Fragrance: 8}, got.FlavorProfile)

	require.Len(t, p.got, 2)
	assert.Equal(t, provider.RoleSystem, p.got[0].Role)
	assert.Contains(t, p.got[1].Content, "Brand name: 獺祭")
	assert.Contains(t, p.got[1].Content, "in Japanese")
}

func TestAnalyzeSakeBrand_Fallback(t *testing.T) {
	tests := []struct {
		name string
		p    *fakeProvider
	}{
		{"transport error", &fakeProvider{err: errors.New("connection refused")}},
		{"no JSON", &fakeProvider{reply: "I don't know this sake."}},
		{"missing flavor profile", &fakeProvider{reply: `{"identifiedName":"X"}`}},
		{"wrong types", &fakeProvider{reply: `{"identifiedName":"X","flavorProfile":{"sweetness":"high"}}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.p).AnalyzeSakeBrand(context.Background(), "TestBrand")
			assert.Equal(t, types.BrandAnalysis{IdentifiedName: "TestBrand", FlavorProfile: neutral}, got)
		})
	}
}

func TestAnalyzeSakeBrand_EmptyNameKeepsInput(t *testing.T) {
	p := &fakeProvider{reply: `{"identifiedName":"  ","flavorProfile":{"sweetness":2,"acidity":7,"umami":6,"richness":8,"fragrance":3}}`}
	got := New(p).AnalyzeSakeBrand(context.Background(), "十四代")
	assert.Equal(t, "十四代", got.IdentifiedName)
	assert.Equal(t, 8, got.FlavorProfile.Richness)
}

func TestAnalyzeMenuAndRecommend(t *testing.T) {
	p := &fakeProvider{reply: `Here is my analysis:
{
  "detectedSakes": ["新政 No.6", "而今", "黒龍"],
  "recommendations": [
    {
      "name": "而今",
      "brewery": "木屋正酒造",
      "matchScore": 92,
      "reason": "fruity and balanced, like the sake you enjoy",
      "flavorProfile": {"sweetness": 6, "acidity": 5, "umami": 5, "richness": 4, "fragrance": 7}
    }
  ],
  "analysisText": "A menu leaning towards fragrant ginjo."
}`}
	brands := []types.SakeBrand{
		{Name: "獺祭", FlavorProfile: types.FlavorProfile{Sweetness: 6, Acidity: 3, Umami: 4, Richness: 3, Fragrance: 8}},
		{Name: "田酒", FlavorProfile: neutral},
	}
	doc := menu.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}

	got, err := New(p, WithLanguage("English")).AnalyzeMenuAndRecommend(context.Background(), doc, brands)
	require.NoError(t, err)
	assert.Equal(t, []string{"新政 No.6", "而今", "黒龍"}, got.DetectedSakes)
	require.Len(t, got.Recommendations, 1)
	rec := got.Recommendations[0]
	assert.Equal(t, "而今", rec.Name)
	assert.Equal(t, 92, rec.MatchScore)
	assert.Equal(t, []string{}, rec.Characteristics)
	assert.Equal(t, "A menu leaning towards fragrant ginjo.", got.AnalysisText)

	require.Len(t, p.got, 2)
	user := p.got[1]
	assert.Contains(t, user.Content, "- 獺祭: sweetness=6, acidity=3, umami=4, richness=3, fragrance=8")
	assert.Contains(t, user.Content, "- 田酒: sweetness=5, acidity=5, umami=5, richness=5, fragrance=5")
	assert.Contains(t, user.Content, "in English")
	assert.NotContains(t, user.Content, "[Text extracted from the menu]")
	require.Len(t, user.Attachments, 1)
	assert.Equal(t, "image/jpeg", user.Attachments[0].MIMEType)
	assert.Equal(t, doc.Data, user.Attachments[0].Data)
}

func TestAnalyzeMenuAndRecommend_PDFText(t *testing.T) {
	p := &fakeProvider{reply: `{"detectedSakes":[],"recommendations":[],"analysisText":"empty menu"}`}
	doc := menu.Image{MIMEType: "application/pdf", Data: []byte("%PDF-1.4"), Text: "飛露喜 特別純米 900円"}

	got, err := New(p).AnalyzeMenuAndRecommend(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Empty(t, got.Recommendations)
	assert.NotNil(t, got.Recommendations)
	assert.Contains(t, p.got[1].Content, "飛露喜 特別純米 900円")
}

func TestAnalyzeMenuAndRecommend_Errors(t *testing.T) {
	upstream := errors.New("quota exceeded")
	tests := []struct {
		name    string
		p       *fakeProvider
		wantErr error
	}{
		{"provider error", &fakeProvider{err: upstream}, upstream},
		{"no JSON", &fakeProvider{reply: "Sorry, the photo is too blurry."}, ErrNoJSON},
		{"schema mismatch", &fakeProvider{reply: `{"detectedSakes":["a"]}`}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := menu.Image{MIMEType: "image/png", Data: []byte("png")}
			_, err := New(tt.p).AnalyzeMenuAndRecommend(context.Background(), doc, nil)
			require.Error(t, err)

			var aerr *AnalysisError
			require.ErrorAs(t, err, &aerr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPreferenceLines_Empty(t *testing.T) {
	assert.Equal(t, "", preferenceLines(nil))
}
