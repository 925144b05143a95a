package converter

import "strings"

// convertImage renders an image as "![alt](uri "title")". A missing alt text
// becomes empty; a missing uri drops the image with a warning.
func (s *state) convertImage(node Node) (string, error) {
	uri := strings.TrimSpace(node.GetStringAttr("uri", ""))
	alt := node.GetStringAttr("alt", "")
	title := node.GetStringAttr("title", "")

	if uri == "" {
		s.addWarning(WarningMissingAttribute, KindImage, "image without uri dropped")
		return "", nil
	}

	filename, _ := parseReferenceDetails(uri)
	output, handled, err := s.applyImageRenderHook(ImageRenderInput{
		SourcePath: s.options.SourcePath,
		URI:        uri,
		Alt:        alt,
		Title:      title,
		Meta:       ImageMetadata{Filename: filename},
		Attrs:      cloneAnyMap(node.Attrs),
	})
	if err != nil {
		return "", err
	}
	if handled {
		return output.Markdown, nil
	}

	alt = strings.Join(strings.Fields(alt), " ")
	image := "![" + EscapeText(alt) + "](" + formatDestination(uri) + formatTitle(title) + ")"

	if target := strings.TrimSpace(node.GetStringAttr("target", "")); target != "" && s.inLink == 0 {
		image = "[" + image + "](" + formatDestination(target) + ")"
	}
	return image, nil
}
