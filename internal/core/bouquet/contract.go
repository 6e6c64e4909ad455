package bouquet

import (
	"fmt"
	"sync"

	"bouquet-recommender/internal/pkg/common"

	"github.com/xeipuuv/gojsonschema"
)

// resultSchema 推薦結果的輸出契約
const resultSchema = `{
  "type": "object",
  "required": ["title", "color_theme", "flowers", "letter", "care_guide", "available_stores"],
  "properties": {
    "title": {"type": "string"},
    "color_theme": {"type": "string"},
    "letter": {"type": "string"},
    "flowers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role", "name", "reason"],
        "properties": {
          "role": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "reason": {"type": "string"}
        }
      }
    },
    "care_guide": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string"}
    },
    "available_stores": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["store_id", "name", "address"],
        "properties": {
          "store_id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "address": {"type": "string"},
          "product_id": {"type": "string"},
          "product_price": {"type": "integer"}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func contract() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultSchema))
	})
	return compiledSchema, schemaErr
}

// ValidateResult 檢查結果是否符合輸出契約
func ValidateResult(result common.BouquetRecipeResult) error {
	schema, err := contract()
	if err != nil {
		return fmt.Errorf("compile result schema: %w", err)
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(result))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !res.Valid() {
		errs := make([]string, len(res.Errors()))
		for i, desc := range res.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("result validation failed: %v", errs)
	}
	return nil
}
