package reference

import (
	"github.com/notargets/nhsolve/dycore"
)

// step holds the per-call constants shared by every column
type step struct {
	dt        float64
	wgtNow    float64
	wgtNew    float64
	scalO2    float64
	first     bool
	last      bool
	prepAdv   bool
	rSubsteps float64
	ndyn      float64
}

// columnScratch is reused across the cells handled by one worker
type columnScratch struct {
	exnerEx []float64 // extrapolated exner perturbation, full levels
	rthPr   []float64 // theta_v perturbation, full levels
	flux    []float64 // vertical mass flux, half levels
	fluxTh  []float64 // vertical theta flux, half levels
}

func newColumnScratch(nlev int) *columnScratch {
	return &columnScratch{
		exnerEx: make([]float64, nlev),
		rthPr:   make([]float64, nlev),
		flux:    make([]float64, nlev+1),
		fluxTh:  make([]float64, nlev+1),
	}
}

// interpolate writes the half level value between full levels k-1 and k.
// The surface uses the extrapolation weights over the lowest levels.
func interpolate(full []float64, wgtfac, wgtfacq []float64, k int) float64 {
	nlev := len(full)
	switch {
	case k == 0:
		return full[0]
	case k < nlev:
		return wgtfac[k]*full[k] + (1-wgtfac[k])*full[k-1]
	default:
		var v float64
		for j := 0; j < len(wgtfacq) && j < nlev; j++ {
			v += wgtfacq[j] * full[nlev-1-j]
		}
		return v
	}
}

// updateColumn advances cell c
func (k *Kernel) updateColumn(a *dycore.RunArgs, c int, st step, sc *columnScratch) {
	m := &k.m
	nlev := k.shape.NLevels

	rhoNow, rhoNew := a.Now.Rho.Row(c), a.New.Rho.Row(c)
	exNow, exNew := a.Now.Exner.Row(c), a.New.Exner.Row(c)
	thNow, thNew := a.Now.ThetaV.Row(c), a.New.ThetaV.Row(c)
	wNow, wNew := a.Now.W.Row(c), a.New.W.Row(c)

	if m.cOwnerMask.Data[c] == 0 && m.maskProgHaloC.Data[c] == 0 {
		copy(rhoNew, rhoNow)
		copy(exNew, exNow)
		copy(thNew, thNow)
		copy(wNew, wNow)
		return
	}

	exRef, exFac := m.exnerRefMC.Row(c), m.exnerExfac.Row(c)
	thRef := m.thetaRefMC.Row(c)
	exPr := a.ExnerPr.Row(c)
	for lev := 0; lev < nlev; lev++ {
		pr := exNow[lev] - exRef[lev]
		sc.exnerEx[lev] = (1+exFac[lev])*pr - exFac[lev]*exPr[lev]
		exPr[lev] = pr
		sc.rthPr[lev] = thNow[lev] - thRef[lev]
	}

	wgtfac, wgtfacq := m.wgtfacC.Row(c), m.wgtfacqC.Row(c)
	invDz, dzHalf := m.invDdqzZFull.Row(c), m.ddqzZHalf.Row(c)
	thIC, rhoIC := a.ThetaVIC.Row(c), a.RhoIC.Row(c)
	dExDzRef := m.dExnerDzRefIC.Row(c)
	ddtW1, ddtW2 := a.DdtWAdvNtl1.Row(c), a.DdtWAdvNtl2.Row(c)
	grfW, concorr := a.GrfTendW.Row(c), a.WConcorrC.Row(c)
	expl, impl := m.vwindExplWgt.Data[c], m.vwindImplWgt.Data[c]

	for h := 0; h <= nlev; h++ {
		thIC[h] = interpolate(thNow, wgtfac, wgtfacq, h)
		rhoIC[h] = interpolate(rhoNow, wgtfac, wgtfacq, h)
	}

	wNew[0] = 0
	for h := 1; h < nlev; h++ {
		thPrIC := wgtfac[h]*sc.rthPr[h] + (1-wgtfac[h])*sc.rthPr[h-1]
		thDdzExner := expl*thIC[h]*(sc.exnerEx[h-1]-sc.exnerEx[h])/dzHalf[h] + thPrIC*dExDzRef[h]
		w := wNow[h] + st.dt*(st.wgtNow*ddtW1[h]+st.wgtNew*ddtW2[h]-dycore.CPD*thDdzExner+grfW[h])
		if coeff := st.scalO2*k.ddO2[h] + k.ddO4[h]; coeff != 0 {
			upper := (wNow[h-1] - wNow[h]) * invDz[h-1]
			lower := (wNow[h] - wNow[h+1]) * invDz[h]
			w += coeff * dzHalf[h] * (upper - lower)
		}
		wNew[h] = k.damp(w, h, st.dt)
	}
	wNew[nlev] = concorr[nlev]

	for h := 0; h <= nlev; h++ {
		sc.flux[h], sc.fluxTh[h] = 0, 0
	}
	for h := 1; h < nlev; h++ {
		sc.flux[h] = rhoIC[h] * (expl*wNow[h] + impl*wNew[h] - concorr[h])
		sc.fluxTh[h] = sc.flux[h] * thIC[h]
	}

	grfRho, grfThv, ddtExPhy := a.GrfTendRho.Row(c), a.GrfTendThv.Row(c), a.DdtExnerPhy.Row(c)
	for lev := 0; lev < nlev; lev++ {
		rtNow := rhoNow[lev] * thNow[lev]
		rhoNew[lev] = rhoNow[lev] - st.dt*invDz[lev]*(sc.flux[lev]-sc.flux[lev+1]) + st.dt*grfRho[lev]
		rtNew := rtNow - st.dt*invDz[lev]*(sc.fluxTh[lev]-sc.fluxTh[lev+1]) +
			st.dt*(grfRho[lev]*thNow[lev]+rhoNow[lev]*grfThv[lev])
		exNew[lev] = exNow[lev]*(1+dycore.RDoCVD*(rtNew/rtNow-1)) + st.dt*ddtExPhy[lev]
		thNew[lev] = rtNow * ((exNew[lev]/exNow[lev]-1)*dycore.CVDoRD + 1) / rhoNew[lev]
	}

	incr := a.ExnerDynIncr.Row(c)
	if st.first {
		copy(incr, exNow)
	}
	if st.last {
		for lev := 0; lev < nlev; lev++ {
			incr[lev] = exNew[lev] - (incr[lev] + st.ndyn*st.dt*ddtExPhy[lev])
		}
	}

	if st.prepAdv {
		mflx, vflx := a.MassFlxIC.Row(c), a.VolFlxIC.Row(c)
		for h := 0; h <= nlev; h++ {
			vol := 0.0
			if h > 0 && h < nlev {
				vol = expl*wNow[h] + impl*wNew[h] - concorr[h]
			}
			if st.first {
				mflx[h], vflx[h] = 0, 0
			}
			mflx[h] += st.rSubsteps * sc.flux[h]
			vflx[h] += st.rSubsteps * vol
		}
	}
}

// damp applies the sponge layer to w at half level h
func (k *Kernel) damp(w float64, h int, dt float64) float64 {
	rw := k.m.rayleighW.Data[h]
	if rw == 0 {
		return w
	}
	if k.cfg.RayleighType == dycore.RayleighKlemp {
		return w / (1 + dt*rw)
	}
	f := 1 - dt*rw
	if f < 0 {
		f = 0
	}
	return w * f
}
