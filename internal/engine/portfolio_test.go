package engine

import "testing"

func TestPortfolioBuy(t *testing.T) {
	p := newPortfolio(10000)

	p, fill, ok := p.buy(1250, 95)
	if !ok {
		t.Fatal("expected buy to fill")
	}
	if fill.Shares != 13 || fill.Price != 95 {
		t.Errorf("unexpected fill %+v", fill)
	}
	if p.avgPrice != 95 {
		t.Errorf("first buy should set avg to price, got %v", p.avgPrice)
	}
	if p.cash != 10000-1235 || p.cumulative != 1235 {
		t.Errorf("cash=%v cumulative=%v", p.cash, p.cumulative)
	}

	p, _, ok = p.buy(1000, 80)
	if !ok {
		t.Fatal("expected second buy to fill")
	}
	want := (95.0*13 + 80*12) / 25
	if p.avgPrice != want {
		t.Errorf("avg = %v, want %v", p.avgPrice, want)
	}
	if p.shares != 25 {
		t.Errorf("shares = %v, want 25", p.shares)
	}
}

func TestPortfolioBuyRejects(t *testing.T) {
	tests := []struct {
		name   string
		cash   float64
		amount float64
		price  float64
	}{
		{"cash short of amount", 100, 200, 10},
		{"less than one share", 1000, 50, 60},
		{"zero price", 1000, 100, 0},
		{"negative price", 1000, 100, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPortfolio(tt.cash)
			next, _, ok := p.buy(tt.amount, tt.price)
			if ok {
				t.Fatal("expected buy to be rejected")
			}
			if next != p {
				t.Errorf("rejected buy changed state: %+v", next)
			}
		})
	}
}

func TestPortfolioSell(t *testing.T) {
	p := portfolio{cash: 0, shares: 40, avgPrice: 50, cumulative: 2000, mode: normalMode{}}

	if _, _, ok := p.sell(41, 60); ok {
		t.Error("selling more than held should be rejected")
	}
	if _, _, ok := p.sell(0, 60); ok {
		t.Error("selling zero should be rejected")
	}

	p, fill, ok := p.sell(10, 60)
	if !ok {
		t.Fatal("expected sell to fill")
	}
	if fill.Shares != 10 || fill.Price != 60 {
		t.Errorf("unexpected fill %+v", fill)
	}
	if p.shares != 30 || p.cash != 600 || p.cumulative != 1400 {
		t.Errorf("unexpected state %+v", p)
	}
	if p.avgPrice != 50 {
		t.Errorf("sell moved avg to %v", p.avgPrice)
	}
	if v := p.value(70); v != 30*70+600 {
		t.Errorf("value = %v", v)
	}
}
