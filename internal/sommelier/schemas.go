package sommelier

// Shapes the model is asked to answer with. Only types and required fields
// are checked; value ranges are requested in the prompt but not enforced.

const flavorProfileSchema = `{
  "type": "object",
  "required": ["sweetness", "acidity", "umami", "richness", "fragrance"],
  "properties": {
    "sweetness": {"type": "integer"},
    "acidity":   {"type": "integer"},
    "umami":     {"type": "integer"},
    "richness":  {"type": "integer"},
    "fragrance": {"type": "integer"}
  }
}`

const brandAnalysisSchema = `{
  "type": "object",
  "required": ["flavorProfile"],
  "properties": {
    "identifiedName": {"type": "string"},
    "brewery":        {"type": ["string", "null"]},
    "region":         {"type": ["string", "null"]},
    "flavorProfile":  ` + flavorProfileSchema + `
  }
}`

const menuAnalysisSchema = `{
  "type": "object",
  "required": ["detectedSakes", "recommendations", "analysisText"],
  "properties": {
    "detectedSakes": {"type": "array", "items": {"type": "string"}},
    "analysisText":  {"type": "string"},
    "recommendations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "matchScore", "reason", "flavorProfile"],
        "properties": {
          "name":            {"type": "string"},
          "brewery":         {"type": ["string", "null"]},
          "matchScore":      {"type": "integer"},
          "reason":          {"type": "string"},
          "flavorProfile":   ` + flavorProfileSchema + `,
          "characteristics": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`
