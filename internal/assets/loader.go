package assets

// AssetLoader loads layout templates by stem, e.g. "post" or "page-home".
// Implementations return ErrTemplateNotFound for unknown names and
// ErrInvalidAssetName for names that are not a single file stem.
type AssetLoader interface {
	LoadTemplate(name string) (string, error)
}
