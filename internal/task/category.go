package task

// Uncategorized is the synthetic label given to records without a category.
// It exists for filtering only and is never sent to the service.
const Uncategorized = "uncategorized"

// EffectiveCategory returns category, or Uncategorized when it is empty.
func EffectiveCategory(category string) string {
	if category == "" {
		return Uncategorized
	}
	return category
}
