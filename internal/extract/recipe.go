package extract

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"menucost/internal/common"
	"menucost/internal/units"
)

// ingredientLine is the fixed grammar for a recipe ingredient:
// an optional bullet, a positive decimal quantity (comma or dot
// separator), an allow-listed unit token, an "of"/"de" connective and the
// ingredient name as the remainder of the line. No semantic recovery: a
// line that does not match is a ParseError, a missing unit is never
// guessed.
var ingredientLine = regexp.MustCompile(`^(?:[-*•]|\d+[.)])?\s*(\d+(?:[.,]\d+)?)\s*(\p{L}+)\s+(?i:of|de)\s+(.+)$`)

// Section markers inside a recipe document.
var (
	ingredientSection  = regexp.MustCompile(`(?i)^#{2,}\s*(ingredientes|ingredients|lista)`)
	instructionSection = regexp.MustCompile(`(?i)^#{2,}\s*(instrucciones|instructions|preparaci[oó]n)`)
)

// recipeExtractor reads line-oriented recipe documents: a `# <name>` title
// marker opens each recipe, an ingredients section lists one ingredient
// per line, and instruction text is retained verbatim on the recipe.
type recipeExtractor struct{}

func NewRecipeExtractor() Extractor { return recipeExtractor{} }

func (recipeExtractor) Extract(ctx context.Context, r io.Reader) (Result, error) {
	var res Result
	var current *RecipeDoc
	inIngredients := false

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := -1
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "# "):
			if current != nil {
				res.Recipes = append(res.Recipes, *current)
			}
			current = &RecipeDoc{Row: lineNo, Name: strings.TrimSpace(strings.TrimPrefix(line, "# "))}
			inIngredients = false

		case ingredientSection.MatchString(line):
			if current == nil {
				res.RowErrors = append(res.RowErrors, common.NewRowError(lineNo, line,
					fmt.Errorf("ingredient section before any recipe title: %w", common.ErrParse)))
				continue
			}
			inIngredients = true

		case instructionSection.MatchString(line):
			inIngredients = false

		case inIngredients:
			rl, err := parseIngredientLine(lineNo, line)
			if err != nil {
				res.RowErrors = append(res.RowErrors, common.NewRowError(lineNo, line, err))
				continue
			}
			current.Lines = append(current.Lines, rl)

		case current != nil && !strings.HasPrefix(line, "#"):
			current.Instructions += line + "\n"
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("scan recipe document: %w", err)
	}
	if current != nil {
		res.Recipes = append(res.Recipes, *current)
	}
	return res, nil
}

func parseIngredientLine(row int, line string) (RecipeLine, error) {
	m := ingredientLine.FindStringSubmatch(line)
	if m == nil {
		return RecipeLine{}, fmt.Errorf("line does not match <quantity> <unit> of <ingredient>: %w", common.ErrParse)
	}
	qtyRaw, unitRaw, nameRaw := m[1], m[2], m[3]

	qty, err := parseQuantity(qtyRaw)
	if err != nil {
		return RecipeLine{}, err
	}
	// The unit must be allow-listed at extraction time so the error points
	// at the offending line, not at a later normalization step.
	if !units.Supported(unitRaw) {
		return RecipeLine{}, fmt.Errorf("unsupported unit %q: %w", unitRaw, common.ErrUnitConversion)
	}
	name := strings.Trim(nameRaw, " \t.,;:!")
	if name == "" {
		return RecipeLine{}, fmt.Errorf("empty ingredient name: %w", common.ErrParse)
	}
	return RecipeLine{
		Row:               row,
		QuantityRaw:       qtyRaw,
		Quantity:          qty,
		UnitRaw:           unitRaw,
		IngredientNameRaw: name,
	}, nil
}
