package quota

import (
	"fmt"
	"slices"
)

// OperationType is a fine-grained metered operation.
type OperationType string

const (
	OpHTMLToPDF     OperationType = "html_to_pdf"
	OpURLToPDF      OperationType = "url_to_pdf"
	OpMarkdownToPDF OperationType = "markdown_to_pdf"
	OpOfficeToPDF   OperationType = "office_to_pdf"
	OpImageToPDF    OperationType = "image_to_pdf"
	OpPDFToPDFA     OperationType = "pdf_to_pdfa"
	OpScreenshot    OperationType = "screenshot"
	OpMerge         OperationType = "merge"
	OpSplit         OperationType = "split"
	OpCompress      OperationType = "compress"
	OpPDFToWord     OperationType = "pdf_to_word"
	OpPDFToImage    OperationType = "pdf_to_image"
	OpPDFToText     OperationType = "pdf_to_text"
	OpPassword      OperationType = "password"
	OpEncrypt       OperationType = "encrypt"
	OpRedact        OperationType = "redact"
	OpSanitize      OperationType = "sanitize"
	OpWatermark     OperationType = "watermark"
	OpAITemplate    OperationType = "ai_template"
)

// operationTypes lists every declared operation type. Adding a constant above
// without listing it here (and mapping it below) fails package initialisation.
var operationTypes = []OperationType{
	OpHTMLToPDF, OpURLToPDF, OpMarkdownToPDF, OpOfficeToPDF, OpImageToPDF, OpPDFToPDFA, OpScreenshot,
	OpMerge, OpSplit,
	OpCompress,
	OpPDFToWord, OpPDFToImage, OpPDFToText,
	OpPassword, OpEncrypt, OpRedact, OpSanitize,
	OpWatermark,
	OpAITemplate,
}

var categories = []Category{
	CategoryConversion,
	CategoryMerge,
	CategoryCompress,
	CategoryConvert,
	CategorySecurity,
	CategoryWatermark,
	CategoryAI,
}

// categoryOf is the closed operation → category table. There is no default bucket.
var categoryOf = map[OperationType]Category{
	OpHTMLToPDF:     CategoryConversion,
	OpURLToPDF:      CategoryConversion,
	OpMarkdownToPDF: CategoryConversion,
	OpOfficeToPDF:   CategoryConversion,
	OpImageToPDF:    CategoryConversion,
	OpPDFToPDFA:     CategoryConversion,
	OpScreenshot:    CategoryConversion,
	OpMerge:         CategoryMerge,
	OpSplit:         CategoryMerge,
	OpCompress:      CategoryCompress,
	OpPDFToWord:     CategoryConvert,
	OpPDFToImage:    CategoryConvert,
	OpPDFToText:     CategoryConvert,
	OpPassword:      CategorySecurity,
	OpEncrypt:       CategorySecurity,
	OpRedact:        CategorySecurity,
	OpSanitize:      CategorySecurity,
	OpWatermark:     CategoryWatermark,
	OpAITemplate:    CategoryAI,
}

var categorySet = func() map[Category]struct{} {
	set := make(map[Category]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return set
}()

func init() {
	if err := validateCatalog(operationTypes, categoryOf); err != nil {
		panic(err)
	}
}

// validateCatalog checks that the table is total over ops and only targets declared categories.
func validateCatalog(ops []OperationType, table map[OperationType]Category) error {
	for _, op := range ops {
		cat, ok := table[op]
		if !ok {
			return fmt.Errorf("%w: %q", ErrIncompleteCatalog, op)
		}
		if !cat.Valid() {
			return fmt.Errorf("%w: %q maps to %q", ErrUnknownCategory, op, cat)
		}
	}
	for op := range table {
		if !slices.Contains(ops, op) {
			return fmt.Errorf("%w: %q is mapped but not declared", ErrUnknownOperationType, op)
		}
	}
	return nil
}

// Valid reports whether op is a declared operation type.
func (op OperationType) Valid() bool {
	_, ok := categoryOf[op]
	return ok
}

func (op OperationType) String() string { return string(op) }

// Category returns the billing bucket of op.
// The second result is false only for undeclared operation types.
func (op OperationType) Category() (Category, bool) {
	c, ok := categoryOf[op]
	return c, ok
}

// CategoryOf returns the category of op or ErrUnknownOperationType.
func CategoryOf(op OperationType) (Category, error) {
	c, ok := categoryOf[op]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperationType, op)
	}
	return c, nil
}

// ParseOperationType converts a raw string to a declared OperationType.
func ParseOperationType(s string) (OperationType, error) {
	op := OperationType(s)
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperationType, s)
	}
	return op, nil
}

// OperationTypes returns all declared operation types.
func OperationTypes() []OperationType {
	return slices.Clone(operationTypes)
}

// Categories returns all declared categories in display order.
func Categories() []Category {
	return slices.Clone(categories)
}

// OperationsIn returns the operation types billed to c.
func OperationsIn(c Category) []OperationType {
	var ops []OperationType
	for _, op := range operationTypes {
		if categoryOf[op] == c {
			ops = append(ops, op)
		}
	}
	return ops
}
