package style

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// ErrInvalidRule — правило отклонено при вставке.
var ErrInvalidRule = errors.New("style: недопустимое правило")

// ValidateRule проверяет, что text — ровно одно CSS-правило с блоком.
// Грамматику CSS целиком не проверяем: только структуру, которую
// отклонил бы insertRule.
func ValidateRule(text string) error {
	rule := strings.TrimSpace(text)
	if rule == "" {
		return fmt.Errorf("%w: пустое правило", ErrInvalidRule)
	}
	if err := checkBalance(rule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if strings.HasPrefix(rule, "{") {
		return fmt.Errorf("%w: пустой селектор", ErrInvalidRule)
	}
	if !strings.HasSuffix(rule, "}") {
		return fmt.Errorf("%w: нет блока объявлений", ErrInvalidRule)
	}

	sheet, err := parser.Parse(rule)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if len(sheet.Rules) != 1 {
		return fmt.Errorf("%w: ожидалось одно правило, получено %d", ErrInvalidRule, len(sheet.Rules))
	}
	return checkRule(sheet.Rules[0])
}

func checkRule(r *css.Rule) error {
	if r.Kind == css.AtRule {
		for _, nested := range r.Rules {
			if err := checkRule(nested); err != nil {
				return err
			}
		}
		return checkDeclarations(r.Declarations)
	}

	if r.Prelude == "" {
		return fmt.Errorf("%w: пустой селектор", ErrInvalidRule)
	}
	for _, sel := range r.Selectors {
		if sel == "" {
			return fmt.Errorf("%w: пустой селектор в списке %q", ErrInvalidRule, r.Prelude)
		}
	}
	return checkDeclarations(r.Declarations)
}

func checkDeclarations(decls []*css.Declaration) error {
	for _, d := range decls {
		if d.Property == "" || d.Value == "" {
			return fmt.Errorf("%w: неполное объявление %q", ErrInvalidRule, d.String())
		}
	}
	return nil
}

// checkBalance проверяет парность {} и () вне строк и комментариев.
func checkBalance(s string) error {
	var stack []byte
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return errors.New("незакрытый комментарий")
			}
			i += end + 3
		case c == '{' || c == '(':
			stack = append(stack, c)
		case c == '}' || c == ')':
			open := byte('{')
			if c == ')' {
				open = '('
			}
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return fmt.Errorf("лишний %q на позиции %d", c, i)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if quote != 0 {
		return errors.New("незакрытая строка")
	}
	if len(stack) > 0 {
		return fmt.Errorf("незакрытый %q", stack[len(stack)-1])
	}
	return nil
}
