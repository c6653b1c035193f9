// Команда cspcheck запрашивает документ у сервера и проверяет, что nonce
// из заголовка CSP совпадает с meta и всеми атрибутами nonce в разметке.
// Затем поднимает реестр динамических стилей поверх полученного документа
// и применяет демонстрационные правила.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cspnonce/internal/csp"
	"cspnonce/internal/dom"
	"cspnonce/internal/style"

	"github.com/rs/zerolog"
)

// Демонстрационные стили компонента контакта.
const (
	demoSelector     = ".from-service"
	demoDeclarations = "margin-top:12px; padding:10px; border-radius:8px; background-color:orange;color:black;"
	demoHoverRules   = ".from-service:hover{background-color:darkorange;}"
)

// maxBody — предел размера документа.
const maxBody = 4 << 20

type report struct {
	URL          string
	HeaderNonce  string
	MetaNonce    string
	Attributes   int
	Mismatched   []string
	Placeholders int
	Containers   []style.Snapshot
}

func (r *report) ok() bool {
	return r.HeaderNonce != "" &&
		r.MetaNonce == r.HeaderNonce &&
		len(r.Mismatched) == 0 &&
		r.Placeholders == 0
}

func main() {
	url := flag.String("url", "http://localhost:4000/", "адрес документа")
	timeout := flag.Duration("timeout", 5*time.Second, "таймаут запроса")
	render := flag.Bool("render", false, "вывести итоговый документ")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rep, doc, err := verify(ctx, http.DefaultClient, *url, log)
	if err != nil {
		log.Error().Err(err).Str("url", *url).Msg("проверка не выполнена")
		os.Exit(2)
	}

	printReport(os.Stdout, rep)
	if *render {
		if err := doc.Render(os.Stdout); err != nil {
			log.Error().Err(err).Msg("не удалось вывести документ")
		}
		fmt.Fprintln(os.Stdout)
	}
	if !rep.ok() {
		os.Exit(1)
	}
}

// verify загружает документ, сверяет nonce и применяет демо-стили.
func verify(ctx context.Context, client *http.Client, url string, log zerolog.Logger) (*report, *dom.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("запрос: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("запрос: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("неожиданный статус %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, nil, fmt.Errorf("чтение ответа: %w", err)
	}
	if len(body) > maxBody {
		return nil, nil, fmt.Errorf("документ больше %d байт", maxBody)
	}

	rep := &report{URL: url, Placeholders: csp.Count(body, csp.Placeholder)}
	rep.HeaderNonce, _ = csp.NonceFromHeader(resp.Header.Get(csp.HeaderName))

	doc, err := dom.ParseBytes(body)
	if err != nil {
		return nil, nil, fmt.Errorf("разбор документа: %w", err)
	}
	rep.MetaNonce, _ = style.MetaNonce{Source: doc}.ReadNonce()

	values := doc.AttributeValues(style.NonceAttr)
	rep.Attributes = len(values)
	for _, v := range values {
		if v != rep.HeaderNonce {
			rep.Mismatched = append(rep.Mismatched, v)
		}
	}

	reg, _ := style.Boot(doc, style.WithLogger(log))
	reg.SetRule(demoSelector, demoDeclarations, "service")
	reg.SetRules(demoHoverRules, "service-hover")
	rep.Containers = reg.Containers()

	return rep, doc, nil
}

func printReport(w io.Writer, r *report) {
	status := "OK"
	if !r.ok() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s %s\n", status, r.URL)
	fmt.Fprintf(w, "  header nonce: %q\n", r.HeaderNonce)
	fmt.Fprintf(w, "  meta nonce:   %q\n", r.MetaNonce)
	fmt.Fprintf(w, "  nonce attrs:  %d (mismatched %d)\n", r.Attributes, len(r.Mismatched))
	fmt.Fprintf(w, "  placeholders: %d\n", r.Placeholders)
	for _, c := range r.Containers {
		fmt.Fprintf(w, "  <style id=%q nonce=%v mode=%s rules=%d>\n", c.ID, c.HasNonce, c.Mode, c.RuleCount())
	}
}
