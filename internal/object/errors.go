package object

import "fmt"

type RedeclarationError struct {
	Name string
}

func (e *RedeclarationError) Error() string {
	return fmt.Sprintf("cannot declare '%s': already defined in this scope", e.Name)
}

type UnresolvedSymbolError struct {
	Name string
}

func (e *UnresolvedSymbolError) Error() string {
	return fmt.Sprintf("cannot resolve '%s': not defined in any accessible scope", e.Name)
}

type ConstReassignmentError struct {
	Name string
}

func (e *ConstReassignmentError) Error() string {
	return fmt.Sprintf("cannot assign to '%s': declared constant", e.Name)
}
