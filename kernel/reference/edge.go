package reference

import "github.com/notargets/nhsolve/dycore"

// updateEdge advances the normal wind of edge e and its edge diagnostics
func (k *Kernel) updateEdge(a *dycore.RunArgs, e int, st step) {
	m := &k.m
	nlev := k.shape.NLevels
	vnNow, vnNew := a.Now.Vn.Row(e), a.New.Vn.Row(e)

	if m.nudgecoeffE.Data[e] > 0 {
		grf := a.GrfTendVn.Row(e)
		for lev := 0; lev < nlev; lev++ {
			vnNew[lev] = vnNow[lev] + st.dt*grf[lev]
		}
	} else {
		apc1, apc2, phy := a.DdtVnApcNtl1.Row(e), a.DdtVnApcNtl2.Row(e), a.DdtVnPhy.Row(e)
		for lev := 0; lev < nlev; lev++ {
			vnNew[lev] = vnNow[lev] + st.dt*(st.wgtNow*apc1[lev]+st.wgtNew*apc2[lev]+phy[lev])
		}
	}

	vnIE := a.VnIE.Row(e)
	wgtfac, wgtfacq := m.wgtfacE.Row(e), m.wgtfacqE.Row(e)
	for h := 0; h <= nlev; h++ {
		vnIE[h] = interpolate(vnNew, wgtfac, wgtfacq, h)
	}

	massFl := a.MassFlE.Row(e)
	rhoE, dz := m.rhoRefME.Row(e), m.ddqzZFullE.Row(e)
	for lev := 0; lev < nlev; lev++ {
		massFl[lev] = rhoE[lev] * vnNew[lev] * dz[lev]
	}

	if st.prepAdv {
		traj, mflx := a.VnTraj.Row(e), a.MassFlxME.Row(e)
		for lev := 0; lev < nlev; lev++ {
			avg := k.params.WgtNnowVel*vnNow[lev] + k.params.WgtNnewVel*vnNew[lev]
			if st.first {
				traj[lev], mflx[lev] = 0, 0
			}
			traj[lev] += st.rSubsteps * avg
			mflx[lev] += st.rSubsteps * massFl[lev]
		}
	}
}
