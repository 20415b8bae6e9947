package disposable

import "sync"

// Disposable releases a subscription or another resource exactly once.
type Disposable interface {
	Dispose()
}

type callbackDisposable struct {
	once     sync.Once
	callback func()
}

func NewDisposable(callback func()) Disposable {
	return &callbackDisposable{callback: callback}
}

func (d *callbackDisposable) Dispose() {
	d.once.Do(d.callback)
}

type compositeDisposable struct {
	delegates []Disposable
}

// NewCompositeDisposable disposes its delegates in reverse order.
func NewCompositeDisposable(delegates ...Disposable) Disposable {
	return &compositeDisposable{delegates: delegates}
}

func (d *compositeDisposable) Dispose() {
	for i := len(d.delegates) - 1; i >= 0; i-- {
		d.delegates[i].Dispose()
	}
}
