package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// findChildByType returns the first direct child of the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// findDescendantByType returns the first node of the given type in a
// depth-first walk of the subtree, or nil.
func findDescendantByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == nodeType {
		return node
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if found := findDescendantByType(node.Child(int(i)), nodeType); found != nil {
			return found
		}
	}
	return nil
}

// getLineRange returns the 1-based start and end lines of a node.
func getLineRange(node *sitter.Node) (uint32, uint32) {
	if node == nil {
		return 0, 0
	}
	return node.StartPoint().Row + 1, node.EndPoint().Row + 1
}

// hasMissingCloseBrace reports whether a brace-delimited body node was
// recovered without its closing brace, i.e. the scope was still open at end
// of input and had to be closed implicitly.
func hasMissingCloseBrace(body *sitter.Node) bool {
	if body == nil {
		return false
	}
	for i := uint32(0); i < body.ChildCount(); i++ {
		child := body.Child(int(i))
		if child.Type() == "}" {
			return child.IsMissing()
		}
	}
	// No closing brace token at all: recovery ran off the end of input.
	return true
}
