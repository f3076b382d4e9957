package occa

import (
	"fmt"
	"github.com/notargets/nhsolve/dycore"
)

const (
	columnKernel = "update_column"
	edgeKernel   = "update_edge"

	// Columns and edges handled by one @outer iteration
	blockSize = 64
)

// preamble defines the physical constants and the half level interpolation
// shared by both kernels
func preamble() string {
	return fmt.Sprintf(`#define CPD %.17g
#define RD_O_CVD %.17g
#define CVD_O_RD %.17g
#define BLOCK %d

double interpolate_half(const double *full, const double *wgtfac,
                        const double *wgtfacq, const int nlev,
                        const int nq, const int h) {
	if (h == 0) return full[0];
	if (h < nlev) return wgtfac[h]*full[h] + (1.0 - wgtfac[h])*full[h-1];
	double v = 0.0;
	for (int j = 0; j < nq && j < nlev; ++j) {
		v += wgtfacq[j]*full[nlev-1-j];
	}
	return v;
}
`, dycore.CPD, dycore.RDoCVD, dycore.CVDoRD, blockSize)
}

const columnSource = `
%s {
	for (int b = 0; b < rho_now_size_0; b += BLOCK; @outer) {
		for (int c = b; c < b + BLOCK; ++c; @inner) {
			if (c < rho_now_size_0) {
				const int nlev = rho_now_size_1;
				const int f0 = c*nlev;
				const int h0 = c*(nlev + 1);
				const int nq = wgtfacq_c_size_1;

				if (c_owner_mask[c] == 0 && mask_prog_halo_c[c] == 0) {
					for (int k = 0; k < nlev; ++k) {
						rho_new[f0+k] = rho_now[f0+k];
						exner_new[f0+k] = exner_now[f0+k];
						theta_v_new[f0+k] = theta_v_now[f0+k];
					}
					for (int h = 0; h <= nlev; ++h) {
						w_new[h0+h] = w_now[h0+h];
					}
				} else {
					double *exEx = ex_ex + f0;
					double *rthPr = rth_pr + f0;
					double *flux = flux_w + h0;
					double *fluxTh = flux_th + h0;

					for (int k = 0; k < nlev; ++k) {
						const double pr = exner_now[f0+k] - exner_ref_mc[f0+k];
						const double fac = exner_exfac[f0+k];
						exEx[k] = (1.0 + fac)*pr - fac*exner_pr[f0+k];
						exner_pr[f0+k] = pr;
						rthPr[k] = theta_v_now[f0+k] - theta_ref_mc[f0+k];
					}
					for (int h = 0; h <= nlev; ++h) {
						theta_v_ic[h0+h] = interpolate_half(theta_v_now + f0, wgtfac_c + h0, wgtfacq_c + c*nq, nlev, nq, h);
						rho_ic[h0+h] = interpolate_half(rho_now + f0, wgtfac_c + h0, wgtfacq_c + c*nq, nlev, nq, h);
					}

					const double expl = vwind_expl_wgt[c];
					const double impl = vwind_impl_wgt[c];

					w_new[h0] = 0.0;
					for (int h = 1; h < nlev; ++h) {
						const double wf = wgtfac_c[h0+h];
						const double thPrIC = wf*rthPr[h] + (1.0 - wf)*rthPr[h-1];
						const double thDdz = expl*theta_v_ic[h0+h]*(exEx[h-1] - exEx[h])/ddqz_z_half[h0+h]
							+ thPrIC*d_exner_dz_ref_ic[h0+h];
						double w = w_now[h0+h] + dtime*(wgt_now*ddt_w_adv_ntl1[h0+h] + wgt_new*ddt_w_adv_ntl2[h0+h]
							- CPD*thDdz + grf_tend_w[h0+h]);
						const double coeff = scal_o2*dd_o2[h] + dd_o4[h];
						if (coeff != 0.0) {
							const double upper = (w_now[h0+h-1] - w_now[h0+h])*inv_ddqz_z_full[f0+h-1];
							const double lower = (w_now[h0+h] - w_now[h0+h+1])*inv_ddqz_z_full[f0+h];
							w += coeff*ddqz_z_half[h0+h]*(upper - lower);
						}
						const double rw = rayleigh_w[h];
						if (rw != 0.0) {
							if (rayleigh_klemp != 0) {
								w = w/(1.0 + dtime*rw);
							} else {
								double f = 1.0 - dtime*rw;
								if (f < 0.0) f = 0.0;
								w *= f;
							}
						}
						w_new[h0+h] = w;
					}
					w_new[h0+nlev] = w_concorr_c[h0+nlev];

					flux[0] = 0.0;
					fluxTh[0] = 0.0;
					flux[nlev] = 0.0;
					fluxTh[nlev] = 0.0;
					for (int h = 1; h < nlev; ++h) {
						flux[h] = rho_ic[h0+h]*(expl*w_now[h0+h] + impl*w_new[h0+h] - w_concorr_c[h0+h]);
						fluxTh[h] = flux[h]*theta_v_ic[h0+h];
					}

					for (int k = 0; k < nlev; ++k) {
						const int i = f0 + k;
						const double rtNow = rho_now[i]*theta_v_now[i];
						const double dz = dtime*inv_ddqz_z_full[i];
						rho_new[i] = rho_now[i] - dz*(flux[k] - flux[k+1]) + dtime*grf_tend_rho[i];
						const double rtNew = rtNow - dz*(fluxTh[k] - fluxTh[k+1])
							+ dtime*(grf_tend_rho[i]*theta_v_now[i] + rho_now[i]*grf_tend_thv[i]);
						exner_new[i] = exner_now[i]*(1.0 + RD_O_CVD*(rtNew/rtNow - 1.0)) + dtime*ddt_exner_phy[i];
						theta_v_new[i] = rtNow*((exner_new[i]/exner_now[i] - 1.0)*CVD_O_RD + 1.0)/rho_new[i];
					}

					if (first != 0) {
						for (int k = 0; k < nlev; ++k) {
							exner_dyn_incr[f0+k] = exner_now[f0+k];
						}
					}
					if (last != 0) {
						for (int k = 0; k < nlev; ++k) {
							exner_dyn_incr[f0+k] = exner_new[f0+k]
								- (exner_dyn_incr[f0+k] + ndyn*dtime*ddt_exner_phy[f0+k]);
						}
					}

					if (prep_adv != 0) {
						for (int h = 0; h <= nlev; ++h) {
							double vol = 0.0;
							if (h > 0 && h < nlev) {
								vol = expl*w_now[h0+h] + impl*w_new[h0+h] - w_concorr_c[h0+h];
							}
							if (first != 0) {
								mass_flx_ic[h0+h] = 0.0;
								vol_flx_ic[h0+h] = 0.0;
							}
							mass_flx_ic[h0+h] += r_substeps*flux[h];
							vol_flx_ic[h0+h] += r_substeps*vol;
						}
					}
				}
			}
		}
	}
}
`

const edgeSource = `
%s {
	for (int b = 0; b < vn_now_size_0; b += BLOCK; @outer) {
		for (int e = b; e < b + BLOCK; ++e; @inner) {
			if (e < vn_now_size_0) {
				const int nlev = vn_now_size_1;
				const int f0 = e*nlev;
				const int h0 = e*(nlev + 1);
				const int nq = wgtfacq_e_size_1;

				for (int k = 0; k < nlev; ++k) {
					const int i = f0 + k;
					if (nudgecoeff_e[e] > 0.0) {
						vn_new[i] = vn_now[i] + dtime*grf_tend_vn[i];
					} else {
						vn_new[i] = vn_now[i] + dtime*(wgt_now*ddt_vn_apc_ntl1[i] + wgt_new*ddt_vn_apc_ntl2[i] + ddt_vn_phy[i]);
					}
				}
				for (int h = 0; h <= nlev; ++h) {
					vn_ie[h0+h] = interpolate_half(vn_new + f0, wgtfac_e + h0, wgtfacq_e + e*nq, nlev, nq, h);
				}
				for (int k = 0; k < nlev; ++k) {
					const int i = f0 + k;
					mass_fl_e[i] = rho_ref_me[i]*vn_new[i]*ddqz_z_full_e[i];
				}
				if (prep_adv != 0) {
					for (int k = 0; k < nlev; ++k) {
						const int i = f0 + k;
						if (first != 0) {
							vn_traj[i] = 0.0;
							mass_flx_me[i] = 0.0;
						}
						vn_traj[i] += r_substeps*(wgt_nnow_vel*vn_now[i] + wgt_nnew_vel*vn_new[i]);
						mass_flx_me[i] += r_substeps*mass_fl_e[i];
					}
				}
			}
		}
	}
}
`
