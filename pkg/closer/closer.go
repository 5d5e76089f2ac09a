package closer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// successIdx - индекс, который возвращается в случае успешного закрытия всех ресурсов
const successIdx = -1

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type resource struct {
	name string
	fn   Func
}

// Closer закрывает зарегистрированные ресурсы в обратном порядке (LIFO).
// Безопасен для конкурентного использования, Close выполняется один раз.
type Closer struct {
	resources     []resource
	mu            sync.Mutex
	once          sync.Once
	forcedTimeout time.Duration
}

// NewCloser создает новый экземпляр Closer.
// forcedTimeout — время на принудительное закрытие оставшихся ресурсов, если контекст Close истёк.
func NewCloser(forcedTimeout time.Duration) *Closer {
	const defaultForcedTimeout = 2 * time.Second

	if forcedTimeout == 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует ресурс. name попадает в текст ошибки, если закрытие не удалось.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, resource{name: name, fn: f})
}

// AddSimple регистрирует функцию закрытия без контекста (pool.Close, conn.Close и т.п.).
func (c *Closer) AddSimple(name string, f func() error) {
	c.Add(name, func(context.Context) error { return f() })
}

// Close закрывает все ресурсы (LIFO).
// Если контекст отменяется до завершения, оставшиеся ресурсы закрываются принудительно и параллельно.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		resources := c.resources
		c.mu.Unlock()

		stopIdx, errs := c.gracefulClose(ctx, resources)
		if stopIdx == successIdx {
			if len(errs) > 0 {
				err = fmt.Errorf("shutdown finished with error(s):\n%s", strings.Join(errs, "\n"))
			}
			return
		}

		remaining := resources[:stopIdx+1]
		errs = append(errs, c.forcedClose(remaining)...)

		err = fmt.Errorf(
			"shutdown interrupted after %d/%d resources:\n%s",
			len(resources)-1-stopIdx,
			len(resources),
			strings.Join(errs, "\n"),
		)
	})

	return err
}

// gracefulClose закрывает ресурсы в порядке LIFO.
// При отмене контекста возвращает индекс ресурса, на котором остановился.
func (c *Closer) gracefulClose(ctx context.Context, resources []resource) (int, []string) {
	var errs []string
	for i := len(resources) - 1; i >= 0; i-- {
		var (
			r    = resources[i]
			done = make(chan error, 1)
		)

		go func() {
			done <- r.fn(ctx)
		}()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Sprintf("[!] %s: %v", r.name, err))
			}
		case <-ctx.Done():
			return i, errs
		}
	}

	return successIdx, errs
}

func (c *Closer) forcedClose(resources []resource) []string {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []string
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, r := range resources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("[FORCED] %s: %v", r.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
